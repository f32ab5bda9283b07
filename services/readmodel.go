package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"naagrik-api/models"
	"naagrik-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DeletedUsername labels authors whose account record is gone.
const DeletedUsername = "[deleted]"

// IssueAuthor is the author summary embedded in an issue.
type IssueAuthor struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email,omitempty"`
	Role     models.Role `json:"role,omitempty"`
	Avatar   string      `json:"avatar,omitempty"`
}

// CommentAuthor is the reduced author summary embedded in a comment.
type CommentAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type IssueView struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Photo       string             `json:"photo,omitempty"`
	Location    models.Location    `json:"location"`
	Status      models.IssueStatus `json:"status"`
	Upvotes     int64              `json:"upvotes"`
	CreatedBy   string             `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	User        IssueAuthor        `json:"user"`
}

// IssueWithComments is the list shape; Comments is always present.
type IssueWithComments struct {
	IssueView
	Comments []CommentView `json:"comments"`
}

type CommentView struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	IssueID   string        `json:"issueId"`
	CreatedBy string        `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
	User      CommentAuthor `json:"user"`
}

// UserView is the full account shape returned to its owner.
type UserView struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	Avatar         string      `json:"avatar,omitempty"`
	Description    string      `json:"description,omitempty"`
	Contact        string      `json:"contact,omitempty"`
	IssuesReported int64       `json:"issuesReported"`
	IssuesResolved int64       `json:"issuesResolved"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func NewUserView(u *models.User) UserView {
	return UserView{
		ID:             u.ID.Hex(),
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		Avatar:         u.Avatar,
		Description:    u.Description,
		Contact:        u.Contact,
		IssuesReported: u.IssuesReported,
		IssuesResolved: u.IssuesResolved,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// Assembler joins stored issues and comments with their authors. It only
// reads, so assembling the same stored state twice gives the same output.
type Assembler struct {
	users    UserStore
	comments CommentStore
	log      *zap.Logger
	fanout   int
}

func NewAssembler(users UserStore, comments CommentStore, log *zap.Logger, fanout int) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	if fanout <= 0 {
		fanout = 8
	}
	return &Assembler{users: users, comments: comments, log: log, fanout: fanout}
}

// Issue assembles a single issue. A missing author is an IntegrityError.
func (a *Assembler) Issue(ctx context.Context, issue *models.Issue) (*IssueView, error) {
	author, err := a.author(ctx, issue.CreatedBy)
	if err != nil {
		return nil, err
	}
	v := issueView(issue, issueAuthor(author))
	return &v, nil
}

// Comment assembles a single comment. A missing author is an IntegrityError.
func (a *Assembler) Comment(ctx context.Context, c *models.Comment) (*CommentView, error) {
	author, err := a.author(ctx, c.CreatedBy)
	if err != nil {
		return nil, err
	}
	v := commentView(c, commentAuthor(author))
	return &v, nil
}

func (a *Assembler) author(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := a.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, IntegrityError("Author record missing", fmt.Errorf("user %s not found", id.Hex()))
	}
	if err != nil {
		return nil, UnexpectedError("Failed to load author", err)
	}
	return u, nil
}

// Comments assembles comments that were already loaded, keeping their order.
// Missing authors become tombstones.
func (a *Assembler) Comments(ctx context.Context, comments []models.Comment) ([]CommentView, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].CreatedBy)
	}
	authors, err := a.authors(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CommentView, 0, len(comments))
	for i := range comments {
		out = append(out, commentView(&comments[i], commentAuthor(a.lookup(authors, comments[i].CreatedBy))))
	}
	return out, nil
}

// IssuesWithComments loads the comments of every issue concurrently, resolves
// all authors with one batched lookup and returns the views in the order of
// issues. Missing authors become tombstones.
func (a *Assembler) IssuesWithComments(ctx context.Context, issues []models.Issue) ([]IssueWithComments, error) {
	perIssue := make([][]models.Comment, len(issues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.fanout)
	for i := range issues {
		i := i
		g.Go(func() error {
			cs, err := a.comments.ListByIssue(gctx, issues[i].ID)
			if err != nil {
				return fmt.Errorf("comments of issue %s: %w", issues[i].ID.Hex(), err)
			}
			perIssue[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, UnexpectedError("Failed to load comments", err)
	}

	var ids []primitive.ObjectID
	for i := range issues {
		ids = append(ids, issues[i].CreatedBy)
		for j := range perIssue[i] {
			ids = append(ids, perIssue[i][j].CreatedBy)
		}
	}
	authors, err := a.authors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]IssueWithComments, 0, len(issues))
	for i := range issues {
		item := IssueWithComments{
			IssueView: issueView(&issues[i], issueAuthor(a.lookup(authors, issues[i].CreatedBy))),
			Comments:  make([]CommentView, 0, len(perIssue[i])),
		}
		for j := range perIssue[i] {
			c := &perIssue[i][j]
			item.Comments = append(item.Comments, commentView(c, commentAuthor(a.lookup(authors, c.CreatedBy))))
		}
		out = append(out, item)
	}
	return out, nil
}

func (a *Assembler) authors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := a.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, UnexpectedError("Failed to load authors", err)
	}
	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

func (a *Assembler) lookup(authors map[primitive.ObjectID]*models.User, id primitive.ObjectID) *models.User {
	if u, ok := authors[id]; ok {
		return u
	}
	a.log.Warn("author record missing, using tombstone", zap.String("user_id", id.Hex()))
	return &models.User{ID: id, Username: DeletedUsername}
}

func issueAuthor(u *models.User) IssueAuthor {
	return IssueAuthor{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Avatar:   u.Avatar,
	}
}

func commentAuthor(u *models.User) CommentAuthor {
	return CommentAuthor{ID: u.ID.Hex(), Username: u.Username, Avatar: u.Avatar}
}

func issueView(issue *models.Issue, author IssueAuthor) IssueView {
	return IssueView{
		ID:          issue.ID.Hex(),
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Photo:       issue.Photo,
		Location:    issue.Location,
		Status:      issue.Status,
		Upvotes:     issue.Upvotes,
		CreatedBy:   issue.CreatedBy.Hex(),
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		User:        author,
	}
}

func commentView(c *models.Comment, author CommentAuthor) CommentView {
	return CommentView{
		ID:        c.ID.Hex(),
		Text:      c.Text,
		IssueID:   c.IssueID.Hex(),
		CreatedBy: c.CreatedBy.Hex(),
		CreatedAt: c.CreatedAt,
		User:      author,
	}
}
