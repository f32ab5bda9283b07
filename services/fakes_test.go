package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"naagrik-api/models"
	"naagrik-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newerFirst(aAt, bAt time.Time, aID, bID primitive.ObjectID) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return aID.Hex() > bID.Hex()
}

type fakeIssues struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Issue
	calls  map[string]int
	failOn map[string]error

	// When listGate is set, List signals listEntered and then blocks until
	// the gate closes or its context ends.
	listGate    chan struct{}
	listEntered chan struct{}
}

func newFakeIssues() *fakeIssues {
	return &fakeIssues{
		byID:   map[primitive.ObjectID]models.Issue{},
		calls:  map[string]int{},
		failOn: map[string]error{},
	}
}

func (f *fakeIssues) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeIssues) enter(op string) error {
	f.calls[op]++
	return f.failOn[op]
}

func (f *fakeIssues) Insert(_ context.Context, issue *models.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Insert"); err != nil {
		return err
	}
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	f.byID[issue.ID] = *issue
	return nil
}

func (f *fakeIssues) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FindByID"); err != nil {
		return nil, err
	}
	issue, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &issue, nil
}

func (f *fakeIssues) List(ctx context.Context) ([]models.Issue, error) {
	if f.listGate != nil {
		select {
		case f.listEntered <- struct{}{}:
		default:
		}
		select {
		case <-f.listGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("List"); err != nil {
		return nil, err
	}
	return f.sorted(func(models.Issue) bool { return true }), nil
}

func (f *fakeIssues) ListByAuthor(_ context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListByAuthor"); err != nil {
		return nil, err
	}
	return f.sorted(func(i models.Issue) bool { return i.CreatedBy == userID }), nil
}

func (f *fakeIssues) sorted(keep func(models.Issue) bool) []models.Issue {
	out := []models.Issue{}
	for _, issue := range f.byID {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out
}

// IncrementUpvotes is atomic under the fake's mutex, like $inc in MongoDB.
func (f *fakeIssues) IncrementUpvotes(_ context.Context, id primitive.ObjectID, now time.Time) (*models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("IncrementUpvotes"); err != nil {
		return nil, err
	}
	issue, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	issue.Upvotes++
	issue.UpdatedAt = now
	f.byID[id] = issue
	return &issue, nil
}

func (f *fakeIssues) SetStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus, now time.Time) (*models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetStatus"); err != nil {
		return nil, err
	}
	issue, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	before := issue
	issue.Status = status
	issue.UpdatedAt = now
	f.byID[id] = issue
	return &before, nil
}

func (f *fakeIssues) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Delete"); err != nil {
		return err
	}
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeIssues) get(id primitive.ObjectID) models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func (f *fakeIssues) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["Insert"] + f.calls["IncrementUpvotes"] + f.calls["SetStatus"] + f.calls["Delete"]
}

type fakeComments struct {
	mu       sync.Mutex
	comments []models.Comment
	listErr  error
}

func (f *fakeComments) Insert(_ context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeComments) ListByIssue(_ context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.IssueID == issueID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (f *fakeComments) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comments)
}

type fakeUsers struct {
	mu           sync.Mutex
	byID         map[primitive.ObjectID]models.User
	batchLookups int
	counterErr   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]models.User{}}
}

func (f *fakeUsers) Insert(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchLookups++
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) IncrementCounters(_ context.Context, id primitive.ObjectID, reported, resolved int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counterErr != nil {
		return f.counterErr
	}
	u, ok := f.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IssuesReported += reported
	u.IssuesResolved += resolved
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) add(username string, role models.Role) models.User {
	u := models.User{
		ID:       primitive.NewObjectID(),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	f.mu.Lock()
	f.byID[u.ID] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUsers) remove(id primitive.ObjectID) {
	f.mu.Lock()
	delete(f.byID, id)
	f.mu.Unlock()
}

func (f *fakeUsers) get(id primitive.ObjectID) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

func principalOf(u models.User) *Principal {
	return &Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// clock hands out strictly increasing timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}
