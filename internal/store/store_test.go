package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "oblog-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func createTestUser(t *testing.T, q *Queries, username, role string) int64 {
	t.Helper()
	id, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     username,
		PasswordHash: "hash",
		Email:        username + "@example.com",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return id
}

func createTestPost(t *testing.T, q *Queries, authorID int64, title, tags, status string) int64 {
	t.Helper()
	now := time.Now().UTC()
	id, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:     title,
		Content:   "content of " + title,
		AuthorID:  authorID,
		Category:  "Tech",
		Tags:      tags,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", title, err)
	}
	return id
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	id := createTestUser(t, q, "alice", "user")
	if id == 0 {
		t.Fatal("id should not be 0")
	}

	u, err := q.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("Username = %q, want alice", u.Username)
	}
	if u.Role != "user" {
		t.Errorf("Role = %q, want user", u.Role)
	}
	if u.Bio.Valid {
		t.Error("Bio should be NULL")
	}

	byName, err := q.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != id {
		t.Errorf("GetUserByUsername ID = %d, want %d", byName.ID, id)
	}
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "alice", "user")

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Username:     "alice",
		PasswordHash: "hash",
		Email:        "other@example.com",
		Role:         "user",
		CreatedAt:    time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected error for duplicate username")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false", err)
	}
	if IsForeignKeyViolation(err) {
		t.Error("unique violation reported as foreign key violation")
	}
}

func TestForeignKeyViolation(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	userID := createTestUser(t, q, "alice", "user")

	_, err := q.CreateComment(context.Background(), CreateCommentParams{
		PostID:    9999,
		UserID:    userID,
		Content:   "orphan",
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
	if !IsForeignKeyViolation(err) {
		t.Errorf("IsForeignKeyViolation(%v) = false", err)
	}
}

func TestUpdateUserProfile_Partial(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	id := createTestUser(t, q, "alice", "user")

	_, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		Bio:    sql.NullString{String: "hello", Valid: true},
		SetBio: true,
		ID:     id,
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}

	_, err = q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ProfileImage: sql.NullString{String: "me.png", Valid: true},
		SetImage:     true,
		ID:           id,
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}

	u, err := q.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u.Bio.String != "hello" {
		t.Errorf("Bio = %q, want hello", u.Bio.String)
	}
	if u.ProfileImage.String != "me.png" {
		t.Errorf("ProfileImage = %q, want me.png", u.ProfileImage.String)
	}

	n, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{SetBio: true, ID: 9999})
	if err != nil {
		t.Fatalf("UpdateUserProfile unknown: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
}

func TestGetDefaultAdmin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if _, err := q.GetDefaultAdmin(ctx, "admin"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetDefaultAdmin on empty db: err = %v, want sql.ErrNoRows", err)
	}

	createTestUser(t, q, "reader", "user")
	first := createTestUser(t, q, "first", "admin")
	named := createTestUser(t, q, "admin", "admin")

	u, err := q.GetDefaultAdmin(ctx, "admin")
	if err != nil {
		t.Fatalf("GetDefaultAdmin: %v", err)
	}
	if u.ID != named {
		t.Errorf("preferred admin ID = %d, want %d", u.ID, named)
	}

	u, err = q.GetDefaultAdmin(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetDefaultAdmin: %v", err)
	}
	if u.ID != first {
		t.Errorf("fallback admin ID = %d, want lowest admin id %d", u.ID, first)
	}
}

func TestListPosts_Filters(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "alice", "admin")
	other := createTestUser(t, q, "bob", "user")

	quantum := createTestPost(t, q, author, "Quantum", "quantum, ai", "published")
	classical := createTestPost(t, q, author, "Classical", "classical", "published")
	draft := createTestPost(t, q, other, "Draft", "air", "draft")

	tests := []struct {
		name string
		args ListPostsParams
		want []int64
	}{
		{"no filters newest first", ListPostsParams{}, []int64{draft, classical, quantum}},
		{"status", ListPostsParams{Status: "published"}, []int64{classical, quantum}},
		{"tag like", ListPostsParams{TagLike: "%quantum%"}, []int64{quantum}},
		{"tag like is substring", ListPostsParams{TagLike: "%ai%"}, []int64{draft, quantum}},
		{"search title", ListPostsParams{SearchLike: "%Class%"}, []int64{classical}},
		{"search content", ListPostsParams{SearchLike: "%content of Draft%"}, []int64{draft}},
		{"author", ListPostsParams{AuthorID: other}, []int64{draft}},
		{"conjunctive", ListPostsParams{Status: "published", AuthorID: other}, nil},
		{"limit", ListPostsParams{Limit: 1}, []int64{draft}},
		{"offset", ListPostsParams{Limit: 1, Offset: 1}, []int64{classical}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := q.ListPosts(ctx, tt.args)
			if err != nil {
				t.Fatalf("ListPosts: %v", err)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tt.want))
			}
			for i, r := range rows {
				if r.ID != tt.want[i] {
					t.Errorf("rows[%d].ID = %d, want %d", i, r.ID, tt.want[i])
				}
			}
		})
	}
}

func TestListPosts_TagSlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "alice", "admin")

	ai := createTestPost(t, q, author, "AI", "ai", "published")
	air := createTestPost(t, q, author, "Air", "air", "published")
	for _, tag := range []PostTag{{PostID: ai, Name: "ai", Slug: "ai"}, {PostID: air, Name: "air", Slug: "air"}} {
		if err := q.InsertPostTag(ctx, tag); err != nil {
			t.Fatalf("InsertPostTag: %v", err)
		}
	}

	rows, err := q.ListPosts(ctx, ListPostsParams{TagSlug: "ai"})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != ai {
		t.Errorf("TagSlug=ai returned %d rows, want only post %d", len(rows), ai)
	}

	if err := q.InsertPostTag(ctx, PostTag{PostID: ai, Name: "AI", Slug: "ai"}); !IsUniqueViolation(err) {
		t.Errorf("duplicate post tag: err = %v, want unique violation", err)
	}
}

func TestGetPostWithAuthor(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "alice", "admin")
	id := createTestPost(t, q, author, "Hello", "", "draft")

	row, err := q.GetPostWithAuthor(ctx, id)
	if err != nil {
		t.Fatalf("GetPostWithAuthor: %v", err)
	}
	if row.AuthorName != "alice" {
		t.Errorf("AuthorName = %q, want alice", row.AuthorName)
	}
	if row.PublishedAt.Valid {
		t.Error("draft should have no published_at")
	}

	if _, err := q.GetPostWithAuthor(ctx, 9999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPostWithAuthor unknown: err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdatePost_KeepImage(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "alice", "admin")
	now := time.Now().UTC()
	id, err := q.CreatePost(ctx, CreatePostParams{
		Title: "T", Content: "C", AuthorID: author, Category: "Tech",
		FeaturedImage: sql.NullString{String: "cover.png", Valid: true},
		Status:        "draft", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	_, err = q.UpdatePost(ctx, UpdatePostParams{
		Title: "T2", Content: "C2", Category: "Tech", Status: "draft",
		KeepImage: true, UpdatedAt: now.Add(time.Second), ID: id,
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	row, err := q.GetPostWithAuthor(ctx, id)
	if err != nil {
		t.Fatalf("GetPostWithAuthor: %v", err)
	}
	if row.Title != "T2" {
		t.Errorf("Title = %q, want T2", row.Title)
	}
	if row.FeaturedImage.String != "cover.png" {
		t.Errorf("FeaturedImage = %q, want cover.png", row.FeaturedImage.String)
	}

	_, err = q.UpdatePost(ctx, UpdatePostParams{
		Title: "T3", Content: "C3", Category: "Tech", Status: "draft",
		FeaturedImage: sql.NullString{String: "new.png", Valid: true},
		UpdatedAt:     now.Add(2 * time.Second), ID: id,
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	row, _ = q.GetPostWithAuthor(ctx, id)
	if row.FeaturedImage.String != "new.png" {
		t.Errorf("FeaturedImage = %q, want new.png", row.FeaturedImage.String)
	}
}

func TestPromoteScheduledPosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "alice", "admin")

	now := time.Now().UTC()
	insert := func(title string, at time.Time) int64 {
		id, err := q.CreatePost(ctx, CreatePostParams{
			Title: title, Content: "c", AuthorID: author, Category: "Tech",
			Status:       "scheduled",
			ScheduledFor: sql.NullTime{Time: at, Valid: true},
			CreatedAt:    now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		return id
	}
	due := insert("due", now.Add(-time.Second))
	future := insert("future", now.Add(time.Hour))

	n, err := q.PromoteScheduledPosts(ctx, now)
	if err != nil {
		t.Fatalf("PromoteScheduledPosts: %v", err)
	}
	if n != 1 {
		t.Errorf("first sweep promoted %d, want 1", n)
	}

	n, err = q.PromoteScheduledPosts(ctx, now)
	if err != nil {
		t.Fatalf("PromoteScheduledPosts: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep promoted %d, want 0", n)
	}

	row, _ := q.GetPostWithAuthor(ctx, due)
	if row.Status != "published" || !row.PublishedAt.Valid {
		t.Errorf("due post status=%q published_at valid=%v", row.Status, row.PublishedAt.Valid)
	}
	row, _ = q.GetPostWithAuthor(ctx, future)
	if row.Status != "scheduled" {
		t.Errorf("future post status = %q, want scheduled", row.Status)
	}
}

func TestCommentsAndCascadeHelpers(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	alice := createTestUser(t, q, "alice", "admin")
	bob := createTestUser(t, q, "bob", "user")
	post := createTestPost(t, q, alice, "P", "", "published")

	base := time.Now().UTC()
	for i, uid := range []int64{alice, bob, bob} {
		if _, err := q.CreateComment(ctx, CreateCommentParams{
			PostID: post, UserID: uid, Content: "c", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
	}

	list, err := q.ListCommentsByPost(ctx, post)
	if err != nil {
		t.Fatalf("ListCommentsByPost: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d comments, want 3", len(list))
	}
	if !list[0].CreatedAt.After(list[2].CreatedAt) {
		t.Error("comments should be newest first")
	}

	n, err := q.DeleteCommentsByUser(ctx, bob)
	if err != nil {
		t.Fatalf("DeleteCommentsByUser: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d comments, want 2", n)
	}

	n, err = q.DeleteCommentsByPost(ctx, post)
	if err != nil {
		t.Fatalf("DeleteCommentsByPost: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d comments, want 1", n)
	}
}

func TestContactMessages(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	var ids []int64
	for i := range 2 {
		id, err := q.CreateContactMessage(ctx, CreateContactMessageParams{
			Name: "n", Email: "n@example.com", Subject: "s", Message: "m",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("CreateContactMessage: %v", err)
		}
		ids = append(ids, id)
	}

	if _, err := q.MarkContactMessageRead(ctx, ids[0]); err != nil {
		t.Fatalf("MarkContactMessageRead: %v", err)
	}

	all, err := q.ListContactMessages(ctx, false)
	if err != nil {
		t.Fatalf("ListContactMessages: %v", err)
	}
	if len(all) != 2 || all[0].ID != ids[1] {
		t.Errorf("ListContactMessages(all) = %+v", all)
	}

	unread, err := q.ListContactMessages(ctx, true)
	if err != nil {
		t.Fatalf("ListContactMessages: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != ids[1] {
		t.Errorf("ListContactMessages(unread) = %+v", unread)
	}

	n, err := q.CountUnreadMessages(ctx)
	if err != nil {
		t.Fatalf("CountUnreadMessages: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUnreadMessages = %d, want 1", n)
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().Add(-48 * time.Hour)
	for _, e := range []CreateEventParams{
		{Level: "warning", Category: "auth", Message: "failed login", Metadata: "{}", CreatedAt: old},
		{Level: "info", Category: "scheduler", Message: "promoted", Metadata: "{}", CreatedAt: time.Now()},
	} {
		if _, err := q.CreateEvent(ctx, e); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Category: "auth"})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Message != "failed login" {
		t.Errorf("ListEvents(auth) = %+v", events)
	}

	n, err := q.DeleteEventsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteEventsBefore = %d, want 1", n)
	}
}

func TestRunInTx_RollsBack(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")
	err := RunInTx(ctx, db, func(q *Queries) error {
		createTestUser(t, q, "ghost", "user")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx err = %v, want boom", err)
	}

	if _, err := New(db).GetUserByUsername(ctx, "ghost"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("user persisted after rollback: err = %v", err)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	cfg := SeedConfig{
		Username: "root",
		Password: "secret",
		Email:    "root@example.com",
		Hasher:   func(p string) (string, error) { return "h:" + p, nil },
	}

	for range 2 {
		if err := Seed(ctx, db, cfg); err != nil {
			t.Fatalf("Seed: %v", err)
		}
	}

	q := New(db)
	n, err := q.CountUsersByRole(ctx, "admin")
	if err != nil {
		t.Fatalf("CountUsersByRole: %v", err)
	}
	if n != 1 {
		t.Errorf("admins = %d, want 1", n)
	}

	u, err := q.GetUserByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.PasswordHash != "h:secret" {
		t.Errorf("PasswordHash = %q, want h:secret", u.PasswordHash)
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := MySQLDSN("blog:pw@tcp(localhost:3306)/blog")
	if err != nil {
		t.Fatalf("MySQLDSN: %v", err)
	}
	if want := "parseTime=true"; !strings.Contains(dsn, want) {
		t.Errorf("dsn %q missing %q", dsn, want)
	}

	if _, err := MySQLDSN("::::"); err == nil {
		t.Error("expected error for malformed dsn")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(DBConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("OBLOG_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("OBLOG_TEST_MYSQL_DSN not set")
	}

	db, err := Open(DBConfig{Driver: DriverMySQL, DSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := MigrateDriver(context.Background(), db, DriverMySQL); err != nil {
		t.Fatalf("MigrateDriver: %v", err)
	}

	ctx := context.Background()
	q := New(db)
	username := "mysql-" + time.Now().Format("150405.000000")
	id := createTestUser(t, q, username, "user")
	defer func() { _, _ = q.DeleteUser(ctx, id) }()

	if _, err := q.CreateUser(ctx, CreateUserParams{
		Username: username, PasswordHash: "h", Email: "x" + username + "@example.com",
		Role: "user", CreatedAt: time.Now().UTC(),
	}); !IsUniqueViolation(err) {
		t.Errorf("duplicate username on mysql: err = %v, want unique violation", err)
	}
}
