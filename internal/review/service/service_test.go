package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/review/domain"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type memRepo struct {
	mu      sync.Mutex
	reviews map[int64]*domain.Review
	votes   map[int64]map[string]string
	gbp     map[string]string
	nextID  int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		reviews: map[int64]*domain.Review{},
		votes:   map[int64]map[string]string{},
		gbp:     map[string]string{},
	}
}

func (m *memRepo) Create(_ context.Context, r *domain.Review) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *r
	cp.ID = m.nextID
	cp.CreatedAt = time.Unix(m.nextID, 0)
	m.reviews[cp.ID] = &cp
	return &cp, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) ListByTenant(_ context.Context, slug string, limit, offset int) ([]*domain.Review, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Review
	for _, r := range m.reviews {
		if r.TenantSlug == slug {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Rating != all[j].Rating {
			return all[i].Rating > all[j].Rating
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memRepo) Update(_ context.Context, id int64, in domain.UpdateInput) (*domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	if in.Comment != nil {
		r.Comment = *in.Comment
	}
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	return r, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reviews[id]
	delete(m.reviews, id)
	return ok, nil
}

func (m *memRepo) SetAvatar(_ context.Context, id int64, filename string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if ok {
		r.AvatarFilename = filename
	}
	return ok, nil
}

func (m *memRepo) Vote(_ context.Context, id int64, ip, voteType string) (domain.VoteCounts, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return domain.VoteCounts{}, false, nil
	}
	if m.votes[id] == nil {
		m.votes[id] = map[string]string{}
	}
	m.votes[id][ip] = voteType
	var c domain.VoteCounts
	for _, v := range m.votes[id] {
		c.TotalVotes++
		if v == domain.VoteHelpful {
			c.HelpfulVotes++
		}
	}
	r.HelpfulVotes, r.TotalVotes = c.HelpfulVotes, c.TotalVotes
	return c, true, nil
}

func (m *memRepo) GBP(_ context.Context, slug string) (string, string, bool, error) {
	url, ok := m.gbp[slug]
	if !ok {
		return "", "", false, nil
	}
	return "Acme", url, true, nil
}

type memStore struct {
	files map[string][]byte
}

func (s *memStore) Save(_ context.Context, name string, data []byte) error {
	s.files[name] = data
	return nil
}

func create(t *testing.T, svc *Service, slug string, rating int, comment string) *domain.Review {
	t.Helper()
	r, err := svc.Create(context.Background(), domain.CreateInput{TenantSlug: slug, CustomerName: "Sam", Rating: rating, Comment: comment})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestListOrderAndPagination(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil, nil)
	create(t, svc, "acme", 4, "old four")
	create(t, svc, "acme", 5, "five")
	create(t, svc, "acme", 4, "new four")
	create(t, svc, "other", 5, "elsewhere")

	list, page, err := svc.List(context.Background(), "acme", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Comment != "five" || list[1].Comment != "new four" {
		t.Errorf("first page = %v", comments(list))
	}
	if page != (domain.Page{Total: 3, Limit: 2, Offset: 0, HasMore: true}) {
		t.Errorf("page = %+v", page)
	}
	list, page, _ = svc.List(context.Background(), "acme", 2, 2)
	if len(list) != 1 || list[0].Comment != "old four" || page.HasMore {
		t.Errorf("second page = %v, %+v", comments(list), page)
	}
}

func comments(list []*domain.Review) []string {
	var out []string
	for _, r := range list {
		out = append(out, r.Comment)
	}
	return out
}

func TestVoteRecount(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil, nil)
	r := create(t, svc, "acme", 5, "great")
	ctx := context.Background()

	steps := []struct {
		ip, vote string
		want     domain.VoteCounts
	}{
		{"1.1.1.1", "helpful", domain.VoteCounts{HelpfulVotes: 1, TotalVotes: 1}},
		{"2.2.2.2", "not_helpful", domain.VoteCounts{HelpfulVotes: 1, TotalVotes: 2}},
		{"1.1.1.1", "not_helpful", domain.VoteCounts{HelpfulVotes: 0, TotalVotes: 2}},
		{"1.1.1.1", "helpful", domain.VoteCounts{HelpfulVotes: 1, TotalVotes: 2}},
	}
	for i, s := range steps {
		got, err := svc.Vote(ctx, r.ID, s.ip, s.vote)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if got != s.want {
			t.Errorf("step %d counts = %+v, want %+v", i, got, s.want)
		}
	}
	if _, err := svc.Vote(ctx, 999, "1.1.1.1", "helpful"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("vote on missing review err = %v", err)
	}
	if _, err := svc.Vote(ctx, r.ID, "1.1.1.1", "meh"); err == nil {
		t.Error("invalid vote type accepted")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(newMemRepo(), nil, nil, nil)
	r := create(t, svc, "acme", 3, "ok")
	ctx := context.Background()
	comment := "better now"
	got, err := svc.Update(ctx, r.ID, domain.UpdateInput{Comment: &comment})
	if err != nil || got.Comment != "better now" {
		t.Fatalf("Update = %+v, %v", got, err)
	}
	if _, err := svc.Update(ctx, 999, domain.UpdateInput{Comment: &comment}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update missing err = %v", err)
	}
	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestUploadAvatar(t *testing.T) {
	repo := newMemRepo()
	store := &memStore{files: map[string][]byte{}}
	svc := NewService(repo, store, nil, nil)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	r := create(t, svc, "acme", 5, "great")
	ctx := context.Background()

	av, err := svc.UploadAvatar(ctx, "1", "Jane Doe", pngBytes)
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if av.Filename != "jane-doe_1_1700000000.png" || av.AvatarURL != "/uploads/avatars/jane-doe_1_1700000000.png" {
		t.Errorf("avatar = %+v", av)
	}
	if _, ok := store.files[av.Filename]; !ok {
		t.Error("file not stored")
	}
	if got, _ := repo.Get(ctx, r.ID); got.AvatarFilename != av.Filename {
		t.Errorf("AvatarFilename = %q", got.AvatarFilename)
	}

	tests := []struct {
		name, id, customer string
		data               []byte
		wantValidation     bool
		wantErr            error
	}{
		{"not an image", "1", "Jane", []byte("hello, plain text"), true, nil},
		{"missing name", "1", "", pngBytes, true, nil},
		{"bad id", "x", "Jane", pngBytes, true, nil},
		{"empty file", "1", "Jane", nil, true, nil},
		{"unknown review", "42", "Jane", pngBytes, false, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadAvatar(ctx, tt.id, tt.customer, tt.data)
			if tt.wantValidation {
				if _, ok := validate.As(err); !ok {
					t.Errorf("err = %v, want validation error", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckGBP(t *testing.T) {
	repo := newMemRepo()
	repo.gbp["acme"] = "https://maps.app.goo.gl/abc"
	repo.gbp["bare"] = ""
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	st, err := svc.CheckGBP(ctx, "acme")
	if err != nil || !st.HasGBPURL || st.URLType != domain.GBPMapsShort {
		t.Errorf("acme = %+v, %v", st, err)
	}
	st, err = svc.CheckGBP(ctx, "bare")
	if err != nil || st.HasGBPURL || st.URLType != "" {
		t.Errorf("bare = %+v, %v", st, err)
	}
	if _, err := svc.CheckGBP(ctx, "nope"); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("nope err = %v", err)
	}
}

func TestDirStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "avatars")
	s := NewDirStore(dir)
	ctx := context.Background()
	if err := s.Save(ctx, "a.png", pngBytes); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil || string(got) != string(pngBytes) {
		t.Errorf("ReadFile = %d bytes, %v", len(got), err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	for _, bad := range []string{"", "../x.png", "a/b.png"} {
		if err := s.Save(ctx, bad, pngBytes); err == nil {
			t.Errorf("Save(%q) succeeded", bad)
		}
	}
}
