package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/service/parse"
	"tracker_server/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// --- fakes ---

type fakeMailbox struct {
	refs     []domain.MessageRef
	messages map[string]*domain.RawMessage
}

func (f *fakeMailbox) GetAuthURL(state string) string { return "http://auth?state=" + state }
func (f *fakeMailbox) ExchangeToken(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "t"}, nil
}
func (f *fakeMailbox) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	return token, nil
}
func (f *fakeMailbox) Profile(ctx context.Context, token *oauth2.Token) (string, error) {
	return "user@example.com", nil
}
func (f *fakeMailbox) Search(ctx context.Context, token *oauth2.Token, query string, max int64) ([]domain.MessageRef, error) {
	return f.refs, nil
}
func (f *fakeMailbox) SearchAll(ctx context.Context, token *oauth2.Token, queries []string, max int64) ([]domain.MessageRef, error) {
	return f.refs, nil
}
func (f *fakeMailbox) Fetch(ctx context.Context, token *oauth2.Token, ref domain.MessageRef) (*domain.RawMessage, error) {
	return f.messages[ref.ID], nil
}
func (f *fakeMailbox) FetchAll(ctx context.Context, token *oauth2.Token, refs []domain.MessageRef) []*domain.RawMessage {
	out := make([]*domain.RawMessage, 0, len(refs))
	for _, ref := range refs {
		if msg, ok := f.messages[ref.ID]; ok {
			out = append(out, msg)
		}
	}
	return out
}

type fakeOrderRepo struct {
	nextID int64
	rows   map[string]*domain.Order // keyed by order_key
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{rows: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Upsert(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	if existing, ok := r.rows[o.OrderKey]; ok {
		// Overwrite the extractable field set, keep storage fields.
		existing.ItemLabel = o.ItemLabel
		existing.ShopName = o.ShopName
		existing.Variant = o.Variant
		existing.Quantity = o.Quantity
		existing.Amount = o.Amount
		existing.Category = o.Category
		existing.Tracking = o.Tracking
		existing.Carrier = o.Carrier
		existing.Status = o.Status
		existing.OrderedAt = o.OrderedAt
		existing.Origin = domain.OriginEmail
		existing.ExtractedAt = o.ExtractedAt
		existing.UpdatedAt = time.Now()
		return existing, nil
	}
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now()
	r.rows[o.OrderKey] = o
	return o, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if _, ok := r.rows[o.OrderKey]; ok {
		return errors.New("duplicate key")
	}
	r.nextID++
	o.ID = r.nextID
	r.rows[o.OrderKey] = o
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Order, error) {
	for _, o := range r.rows {
		if o.ID == id && o.UserID == userID {
			return o, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, f *domain.OrderFilter) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range r.rows {
		if o.UserID == f.UserID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *domain.Order) error { return nil }
func (r *fakeOrderRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	return nil
}
func (r *fakeOrderRepo) Summary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, error) {
	return &domain.OrderSummary{}, nil
}

type fakeLock struct {
	held bool
}

func (l *fakeLock) Acquire(ctx context.Context, userID string) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}
func (l *fakeLock) Release(ctx context.Context, userID string) error {
	l.held = false
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "token", Expiry: time.Now().Add(time.Hour)}, nil
}

// --- tests ---

func newTestService(mailbox *fakeMailbox, repo *fakeOrderRepo, lock *fakeLock) *Service {
	svc := NewService(mailbox, repo, nil, lock, fakeTokens{}, parse.NewParser("tiktok"), nil, Config{
		MaxMessages:   20,
		SearchQueries: []string{`from:"TikTok Shop"`},
	})
	return svc.(*Service)
}

func TestSync_UpsertsAndReturnsFullState(t *testing.T) {
	userID := uuid.New()
	repo := newFakeOrderRepo()

	// A manual order already in the store; sync must return it too.
	repo.rows["M-1"] = &domain.Order{ID: 99, UserID: userID, OrderKey: "M-1", ItemLabel: "Manual", Origin: domain.OriginManual}

	mailbox := &fakeMailbox{
		refs: []domain.MessageRef{{ID: "m1"}},
		messages: map[string]*domain.RawMessage{
			"m1": {
				ID:      "m1",
				From:    "TikTok Shop <noreply@tiktokshop.com>",
				Subject: "Your order has shipped!",
				Body:    "Order 576123456789012345 Total Payment ₱217.43",
			},
		},
	}

	svc := newTestService(mailbox, repo, &fakeLock{})
	res, err := svc.Sync(context.Background(), userID)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if res.Fetched != 1 || res.Parsed != 1 || res.Upserted != 1 {
		t.Errorf("counters = fetched %d, parsed %d, upserted %d, want 1,1,1", res.Fetched, res.Parsed, res.Upserted)
	}
	if len(res.Orders) != 2 {
		t.Fatalf("len(Orders) = %d, want full state of 2", len(res.Orders))
	}
	if repo.rows["576123456789012345"] == nil {
		t.Error("email order not stored under its platform order key")
	}
}

func TestSync_EmailFieldsOverwriteExisting(t *testing.T) {
	userID := uuid.New()
	repo := newFakeOrderRepo()

	// Existing row with a manually corrected carrier.
	repo.rows["576123456789012345"] = &domain.Order{
		ID:       7,
		UserID:   userID,
		OrderKey: "576123456789012345",
		Carrier:  "LBC Express",
		Status:   domain.OrderStatusOrdered,
	}

	mailbox := &fakeMailbox{
		refs: []domain.MessageRef{{ID: "m1"}},
		messages: map[string]*domain.RawMessage{
			"m1": {
				ID:      "m1",
				From:    "noreply@tiktok.com",
				Subject: "Your order has shipped!",
				Body:    "Order 576123456789012345 JT1234567890123",
			},
		},
	}

	svc := newTestService(mailbox, repo, &fakeLock{})
	if _, err := svc.Sync(context.Background(), userID); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	row := repo.rows["576123456789012345"]
	if row.ID != 7 {
		t.Errorf("row ID = %d, want storage id 7 preserved", row.ID)
	}
	if row.Carrier != "J&T Express" {
		t.Errorf("Carrier = %q, want email-derived J&T Express to win", row.Carrier)
	}
	if row.Status != domain.OrderStatusShipped {
		t.Errorf("Status = %v, want %v", row.Status, domain.OrderStatusShipped)
	}
}

func TestSync_MissingFetchSkipsMessage(t *testing.T) {
	userID := uuid.New()
	repo := newFakeOrderRepo()

	mailbox := &fakeMailbox{
		refs: []domain.MessageRef{{ID: "gone"}, {ID: "m2"}},
		messages: map[string]*domain.RawMessage{
			// "gone" has no payload: the fetch failed.
			"m2": {
				ID:      "m2",
				From:    "noreply@tiktok.com",
				Subject: "Your order has shipped!",
				Body:    "₱55.00",
			},
		},
	}

	svc := newTestService(mailbox, repo, &fakeLock{})
	res, err := svc.Sync(context.Background(), userID)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Fetched != 1 {
		t.Errorf("Fetched = %d, want 1 (failed fetch dropped)", res.Fetched)
	}
	if res.Parsed != 1 || res.Upserted != 1 {
		t.Errorf("parsed %d, upserted %d, want 1, 1", res.Parsed, res.Upserted)
	}
}

func TestSync_ConcurrentRunRejected(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(&fakeMailbox{}, newFakeOrderRepo(), &fakeLock{held: true})

	_, err := svc.Sync(context.Background(), userID)
	if err == nil {
		t.Fatal("Sync() error = nil, want sync-in-progress")
	}
	appErr := apperr.AsAppError(err)
	if appErr.Code != apperr.CodeSyncInProgress {
		t.Errorf("error code = %q, want %q", appErr.Code, apperr.CodeSyncInProgress)
	}
}

func TestSync_ZeroOrdersIsNotAnError(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(&fakeMailbox{}, newFakeOrderRepo(), &fakeLock{})

	res, err := svc.Sync(context.Background(), userID)
	if err != nil {
		t.Fatalf("Sync() error = %v, want nil", err)
	}
	if res.Parsed != 0 || res.Upserted != 0 {
		t.Errorf("parsed %d, upserted %d, want 0, 0", res.Parsed, res.Upserted)
	}
}
