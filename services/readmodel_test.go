package services

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"naagrik-api/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssemblerIsIdempotent(t *testing.T) {
	users := newFakeUsers()
	comments := &fakeComments{}
	author := users.add("alice", models.RoleUser)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	issues := []models.Issue{{
		ID:        primitive.NewObjectID(),
		Title:     "Pothole",
		Status:    models.StatusOpen,
		CreatedBy: author.ID,
		CreatedAt: at,
		UpdatedAt: at,
	}}
	_ = comments.Insert(context.Background(), &models.Comment{
		Text: "+1", CreatedBy: author.ID, IssueID: issues[0].ID, CreatedAt: at,
	})

	a := NewAssembler(users, comments, nil, 2)
	first, err := a.IssuesWithComments(context.Background(), issues)
	if err != nil {
		t.Fatalf("IssuesWithComments: %v", err)
	}
	second, err := a.IssuesWithComments(context.Background(), issues)
	if err != nil {
		t.Fatalf("IssuesWithComments: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("assembling twice gave different results")
	}
}

func TestIssueViewJSONShape(t *testing.T) {
	v := IssueWithComments{IssueView: IssueView{ID: "1", User: IssueAuthor{ID: "2", Username: "alice"}}}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"id", "title", "status", "upvotes", "createdBy", "user", "comments", "location"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in %s", key, raw)
		}
	}
	if _, ok := out["photo"]; ok {
		t.Errorf("empty photo should be omitted: %s", raw)
	}
}
