package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"naagrik-api/models"
	"naagrik-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	msgIssueNotFound = "Issue not found"
	listIssuesKey    = "issues:all"
	listTimeout      = 10 * time.Second
)

// EngineDeps wires an Engine.
type EngineDeps struct {
	Issues   IssueStore
	Comments CommentStore
	Users    UserStore
	Policy   *Policy
	Logger   *zap.Logger
	Metrics  *Metrics

	// CommentFanout bounds concurrent comment loads while listing.
	CommentFanout int
	Now           func() time.Time
}

// Engine runs the issue lifecycle and engagement operations. It keeps no
// per-request state; the singleflight group only collapses identical list
// calls that are in flight at the same time.
type Engine struct {
	issues    IssueStore
	comments  CommentStore
	users     UserStore
	policy    *Policy
	assembler *Assembler
	log       *zap.Logger
	metrics   *Metrics
	now       func() time.Time
	lists     singleflight.Group
}

func NewEngine(d EngineDeps) *Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		issues:    d.Issues,
		comments:  d.Comments,
		users:     d.Users,
		policy:    d.Policy,
		assembler: NewAssembler(d.Users, d.Comments, log, d.CommentFanout),
		log:       log,
		metrics:   d.Metrics,
		now:       now,
	}
}

// LocationInput keeps lat and lng optional so that an absent coordinate can
// be told apart from zero.
type LocationInput struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type CreateIssueInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Photo       string         `json:"photo"`
	Location    *LocationInput `json:"location"`
}

func (in CreateIssueInput) validate() (models.Location, error) {
	if strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Category) == "" {
		return models.Location{}, ValidationError("Title, description, and category are required")
	}
	if in.Location == nil || in.Location.Lat == nil || in.Location.Lng == nil {
		return models.Location{}, ValidationError("Location with lat and lng is required")
	}
	loc := models.Location{Lat: *in.Location.Lat, Lng: *in.Location.Lng}
	if !loc.Valid() {
		return models.Location{}, ValidationError("Location is out of range")
	}
	return loc, nil
}

// CreateIssue stores a new OPEN issue with no upvotes owned by p.
func (e *Engine) CreateIssue(ctx context.Context, p *Principal, in CreateIssueInput) (view *IssueView, err error) {
	defer func() { e.metrics.observe("create_issue", err) }()

	if err := e.policy.Authorize(p, ActionCreateIssue); err != nil {
		return nil, err
	}
	loc, err := in.validate()
	if err != nil {
		return nil, err
	}

	// Resolve the author before writing so a token for a vanished account
	// cannot leave an issue behind.
	author, err := e.users.FindByID(ctx, p.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, Unauthenticated("Account no longer exists")
	}
	if err != nil {
		return nil, UnexpectedError("Failed to load author", err)
	}

	now := e.now()
	issue := &models.Issue{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Photo:       strings.TrimSpace(in.Photo),
		Location:    loc,
		Status:      models.StatusOpen,
		Upvotes:     0,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.issues.Insert(ctx, issue); err != nil {
		return nil, UnexpectedError("Failed to create issue", err)
	}

	if err := e.users.IncrementCounters(ctx, p.UserID, 1, 0); err != nil {
		e.log.Warn("failed to bump issuesReported",
			zap.String("user_id", p.UserID.Hex()), zap.Error(err))
	}

	v := issueView(issue, issueAuthor(author))
	return &v, nil
}

// Upvote adds one vote through the store's atomic increment.
func (e *Engine) Upvote(ctx context.Context, p *Principal, issueID string) (view *IssueView, err error) {
	defer func() { e.metrics.observe("upvote", err) }()

	if err := e.policy.Authorize(p, ActionUpvote); err != nil {
		return nil, err
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	issue, err := e.issues.IncrementUpvotes(ctx, id, e.now())
	if err != nil {
		return nil, storeFailure("Failed to upvote issue", err)
	}
	e.metrics.upvoted()
	return e.assembler.Issue(ctx, issue)
}

// AddComment appends a comment to an existing issue.
func (e *Engine) AddComment(ctx context.Context, p *Principal, issueID, text string) (view *CommentView, err error) {
	defer func() { e.metrics.observe("add_comment", err) }()

	if err := e.policy.Authorize(p, ActionComment); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("Comment text is required")
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	if _, err := e.issues.FindByID(ctx, id); err != nil {
		return nil, storeFailure("Failed to load issue", err)
	}

	c := &models.Comment{
		Text:      text,
		CreatedBy: p.UserID,
		IssueID:   id,
		CreatedAt: e.now(),
	}
	if err := e.comments.Insert(ctx, c); err != nil {
		return nil, UnexpectedError("Failed to add comment", err)
	}
	return e.assembler.Comment(ctx, c)
}

// ChangeStatus moves an issue to status. Only the exact status literals are
// accepted and nothing is written when validation fails.
func (e *Engine) ChangeStatus(ctx context.Context, p *Principal, issueID, status string) (view *IssueView, err error) {
	defer func() { e.metrics.observe("change_status", err) }()

	if err := e.policy.Authorize(p, ActionChangeStatus); err != nil {
		return nil, err
	}
	next, ok := models.ParseIssueStatus(status)
	if !ok {
		return nil, ValidationError("Invalid status")
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}

	current, err := e.issues.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure("Failed to load issue", err)
	}
	if !models.CanTransition(current.Status, next) {
		return nil, ValidationError("Status transition not allowed")
	}

	now := e.now()
	before, err := e.issues.SetStatus(ctx, id, next, now)
	if err != nil {
		return nil, storeFailure("Failed to update status", err)
	}
	e.adjustResolved(ctx, before, next)

	after := *before
	after.Status = next
	after.UpdatedAt = now
	return e.assembler.Issue(ctx, &after)
}

func (e *Engine) adjustResolved(ctx context.Context, before *models.Issue, next models.IssueStatus) {
	var delta int64
	switch {
	case before.Status != models.StatusResolved && next == models.StatusResolved:
		delta = 1
	case before.Status == models.StatusResolved && next != models.StatusResolved:
		delta = -1
	default:
		return
	}
	if err := e.users.IncrementCounters(ctx, before.CreatedBy, 0, delta); err != nil {
		e.log.Warn("failed to adjust issuesResolved",
			zap.String("user_id", before.CreatedBy.Hex()),
			zap.Int64("delta", delta),
			zap.Error(err))
	}
}

// DeleteIssue removes an issue. Its comments stay in the comment store.
func (e *Engine) DeleteIssue(ctx context.Context, p *Principal, issueID string) (err error) {
	defer func() { e.metrics.observe("delete_issue", err) }()

	if err := e.policy.Authorize(p, ActionDeleteIssue); err != nil {
		return err
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return err
	}
	if err := e.issues.Delete(ctx, id); err != nil {
		return storeFailure("Failed to delete issue", err)
	}
	return nil
}

// ListIssues returns every issue newest first with authors and comments.
// The returned slice may be shared with concurrent callers and must not be
// modified.
func (e *Engine) ListIssues(ctx context.Context, p *Principal) (views []IssueWithComments, err error) {
	defer func() { e.metrics.observe("list_issues", err) }()

	if err := e.policy.Authorize(p, ActionListIssues); err != nil {
		return nil, err
	}
	// The shared load runs detached from the caller that started it, so one
	// caller going away does not fail the others waiting on the same key.
	ch := e.lists.DoChan(listIssuesKey, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		issues, err := e.issues.List(sctx)
		if err != nil {
			return nil, UnexpectedError("Failed to list issues", err)
		}
		return e.assembler.IssuesWithComments(sctx, issues)
	})
	select {
	case <-ctx.Done():
		return nil, UnexpectedError("List request abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]IssueWithComments), nil
	}
}

// GetIssue returns one issue with its comments.
func (e *Engine) GetIssue(ctx context.Context, p *Principal, issueID string) (view *IssueWithComments, err error) {
	defer func() { e.metrics.observe("get_issue", err) }()

	if err := e.policy.Authorize(p, ActionReadIssue); err != nil {
		return nil, err
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	issue, err := e.issues.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure("Failed to load issue", err)
	}
	iv, err := e.assembler.Issue(ctx, issue)
	if err != nil {
		return nil, err
	}
	comments, err := e.listComments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &IssueWithComments{IssueView: *iv, Comments: comments}, nil
}

// ListComments returns the comments of an existing issue, newest first.
func (e *Engine) ListComments(ctx context.Context, p *Principal, issueID string) (views []CommentView, err error) {
	defer func() { e.metrics.observe("list_comments", err) }()

	if err := e.policy.Authorize(p, ActionReadIssue); err != nil {
		return nil, err
	}
	id, err := parseIssueID(issueID)
	if err != nil {
		return nil, err
	}
	if _, err := e.issues.FindByID(ctx, id); err != nil {
		return nil, storeFailure("Failed to load issue", err)
	}
	return e.listComments(ctx, id)
}

func (e *Engine) listComments(ctx context.Context, id primitive.ObjectID) ([]CommentView, error) {
	comments, err := e.comments.ListByIssue(ctx, id)
	if err != nil {
		return nil, UnexpectedError("Failed to load comments", err)
	}
	return e.assembler.Comments(ctx, comments)
}

// ListMyIssues returns the issues reported by p, newest first.
func (e *Engine) ListMyIssues(ctx context.Context, p *Principal) (views []IssueWithComments, err error) {
	defer func() { e.metrics.observe("list_my_issues", err) }()

	if err := e.policy.Authorize(p, ActionViewSelf); err != nil {
		return nil, err
	}
	issues, err := e.issues.ListByAuthor(ctx, p.UserID)
	if err != nil {
		return nil, UnexpectedError("Failed to list issues", err)
	}
	return e.assembler.IssuesWithComments(ctx, issues)
}

// parseIssueID treats a malformed id like an unknown one.
func parseIssueID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, NotFound(msgIssueNotFound)
	}
	return id, nil
}

func storeFailure(msg string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFound(msgIssueNotFound)
	}
	return UnexpectedError(msg, err)
}
