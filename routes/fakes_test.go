package routes

import (
	"context"
	"sort"
	"sync"
	"time"

	"naagrik-api/models"
	"naagrik-api/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB is an in-memory stand-in for the three MongoDB collections.
type memDB struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]models.User
	issues   map[primitive.ObjectID]models.Issue
	comments []models.Comment
	pingErr  error
}

func newMemDB() *memDB {
	return &memDB{
		users:  map[primitive.ObjectID]models.User{},
		issues: map[primitive.ObjectID]models.Issue{},
	}
}

func (m *memDB) Ping(context.Context) error { return m.pingErr }

type memUsers struct{ *memDB }
type memIssues struct{ *memDB }
type memComments struct{ *memDB }

func (m memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = *u
	return nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m memUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memUsers) IncrementCounters(_ context.Context, id primitive.ObjectID, reported, resolved int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IssuesReported += reported
	u.IssuesResolved += resolved
	m.users[id] = u
	return nil
}

func (m memIssues) Insert(_ context.Context, issue *models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue.ID = primitive.NewObjectID()
	m.issues[issue.ID] = *issue
	return nil
}

func (m memIssues) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &issue, nil
}

func (m memIssues) List(ctx context.Context) ([]models.Issue, error) {
	return m.filter(func(models.Issue) bool { return true }), nil
}

func (m memIssues) ListByAuthor(_ context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	return m.filter(func(i models.Issue) bool { return i.CreatedBy == userID }), nil
}

func (m memIssues) filter(keep func(models.Issue) bool) []models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Issue{}
	for _, issue := range m.issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (m memIssues) IncrementUpvotes(_ context.Context, id primitive.ObjectID, now time.Time) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	issue.Upvotes++
	issue.UpdatedAt = now
	m.issues[id] = issue
	return &issue, nil
}

func (m memIssues) SetStatus(_ context.Context, id primitive.ObjectID, status models.IssueStatus, now time.Time) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	before := issue
	issue.Status = status
	issue.UpdatedAt = now
	m.issues[id] = issue
	return &before, nil
}

func (m memIssues) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.issues, id)
	return nil
}

func (m memComments) Insert(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	m.comments = append(m.comments, *c)
	return nil
}

func (m memComments) ListByIssue(_ context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for i := len(m.comments) - 1; i >= 0; i-- {
		if m.comments[i].IssueID == issueID {
			out = append(out, m.comments[i])
		}
	}
	return out, nil
}

func (m *memDB) issue(id primitive.ObjectID) models.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issues[id]
}
