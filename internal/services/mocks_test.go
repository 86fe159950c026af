package services

import (
	"context"
	"fmt"
	"time"

	"clubstack/internal/domain"
)

// fakeTxManager runs the function directly with a nil handle. Repo fakes in
// this package ignore the handle entirely.
type fakeTxManager struct {
	err error // if set, WithinTx fails without calling fn
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// fakeWorkshopRepo is an in-memory WorkshopRepository for tests.
type fakeWorkshopRepo struct {
	byID   map[string]*domain.Workshop
	nextID int
	err    error // if set, every method returns this error
}

func newFakeWorkshopRepo() *fakeWorkshopRepo {
	return &fakeWorkshopRepo{byID: make(map[string]*domain.Workshop), nextID: 1}
}

func (f *fakeWorkshopRepo) Create(ctx context.Context, tx domain.Tx, w *domain.Workshop) error {
	if f.err != nil {
		return f.err
	}
	w.ID = fmt.Sprintf("ws-%d", f.nextID)
	f.nextID++
	f.byID[w.ID] = w
	return nil
}

func (f *fakeWorkshopRepo) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Workshop, error) {
	if f.err != nil {
		return nil, f.err
	}
	if w, ok := f.byID[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeWorkshopRepo) List(ctx context.Context, tx domain.Tx, includeMembersOnly bool) ([]*domain.Workshop, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Workshop, 0)
	for _, w := range f.byID {
		if !includeMembersOnly && w.Visibility == domain.VisibilityMembersOnly {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWorkshopRepo) Update(ctx context.Context, tx domain.Tx, id string, patch domain.WorkshopPatch) (*domain.Workshop, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Location != nil {
		w.Location = *patch.Location
	}
	if patch.StartsAt != nil {
		w.StartsAt = *patch.StartsAt
	}
	if patch.EndsAt != nil {
		w.EndsAt = *patch.EndsAt
	}
	if patch.MaxCapacity != nil {
		w.MaxCapacity = *patch.MaxCapacity
	}
	if patch.PriceMember != nil {
		w.PriceMember = *patch.PriceMember
	}
	if patch.PriceNonMember != nil {
		w.PriceNonMember = *patch.PriceNonMember
	}
	if patch.Visibility != nil {
		w.Visibility = *patch.Visibility
	}
	if patch.RefundDays != nil {
		w.RefundDays = patch.RefundDays
	}
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (f *fakeWorkshopRepo) UpdateStatus(ctx context.Context, tx domain.Tx, id string, from, to domain.WorkshopStatus) error {
	if f.err != nil {
		return f.err
	}
	w, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if w.Status != from {
		return domain.ErrWrongState
	}
	w.Status = to
	return nil
}

func (f *fakeWorkshopRepo) Delete(ctx context.Context, tx domain.Tx, id string, from domain.WorkshopStatus) error {
	if f.err != nil {
		return f.err
	}
	w, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if w.Status != from {
		return domain.ErrWrongState
	}
	delete(f.byID, id)
	return nil
}

// fakeRegistrationRepo is an in-memory RegistrationRepository for tests.
type fakeRegistrationRepo struct {
	byID   map[string]*domain.Registration
	nextID int
	err    error
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byID: make(map[string]*domain.Registration), nextID: 1}
}

func (f *fakeRegistrationRepo) add(reg *domain.Registration) *domain.Registration {
	if reg.ID == "" {
		reg.ID = fmt.Sprintf("reg-%d", f.nextID)
		f.nextID++
	}
	f.byID[reg.ID] = reg
	return reg
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, tx domain.Tx, reg *domain.Registration) error {
	if f.err != nil {
		return f.err
	}
	f.add(reg)
	return nil
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	if reg, ok := f.byID[id]; ok {
		cp := *reg
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func isActive(s domain.RegistrationStatus) bool {
	return s == domain.RegistrationPending || s == domain.RegistrationConfirmed
}

func (f *fakeRegistrationRepo) GetActiveByWorkshopAndMember(ctx context.Context, tx domain.Tx, workshopID, memberID string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, reg := range f.byID {
		if reg.WorkshopID == workshopID && reg.MemberID != nil && *reg.MemberID == memberID && isActive(reg.Status) {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRegistrationRepo) CountActiveByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, reg := range f.byID {
		if reg.WorkshopID == workshopID && isActive(reg.Status) {
			count++
		}
	}
	return count, nil
}

func (f *fakeRegistrationRepo) CountByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, reg := range f.byID {
		if reg.WorkshopID == workshopID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRegistrationRepo) ListPaidByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Registration, 0)
	for _, reg := range f.byID {
		if reg.WorkshopID == workshopID && reg.CheckoutSessionID != nil {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ListAttendees(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Attendee, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Attendee, 0)
	for _, reg := range f.byID {
		if reg.WorkshopID != workshopID || !isActive(reg.Status) {
			continue
		}
		a := &domain.Attendee{Registration: reg}
		if reg.ExternalName != nil {
			a.DisplayName = *reg.ExternalName
		}
		if reg.ExternalEmail != nil {
			a.Email = *reg.ExternalEmail
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ListByMember(ctx context.Context, tx domain.Tx, memberID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Registration, 0)
	for _, reg := range f.byID {
		if reg.MemberID != nil && *reg.MemberID == memberID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) UpdateStatus(ctx context.Context, tx domain.Tx, id string, from []domain.RegistrationStatus, to domain.RegistrationStatus, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	reg, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if reg.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return domain.ErrWrongState
	}
	reg.Status = to
	if to == domain.RegistrationConfirmed {
		reg.ConfirmedAt = &at
	} else {
		reg.CancelledAt = &at
	}
	return nil
}

func (f *fakeRegistrationRepo) ListAttendance(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Registration, 0)
	for _, reg := range f.byID {
		if reg.WorkshopID == workshopID && reg.Status == domain.RegistrationConfirmed {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) UpdateAttendance(ctx context.Context, tx domain.Tx, workshopID string, u domain.AttendanceUpdate, markedBy string, markedAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	reg, ok := f.byID[u.RegistrationID]
	if !ok || reg.WorkshopID != workshopID {
		return false, nil
	}
	reg.AttendanceStatus = &u.Status
	reg.AttendanceMarkedBy = &markedBy
	reg.AttendanceMarkedAt = &markedAt
	reg.AttendanceNotes = u.Notes
	return true, nil
}

// fakeInterestRepo is an in-memory InterestRepository for tests.
type fakeInterestRepo struct {
	interests []*domain.Interest
	nextID    int
	err       error
}

func newFakeInterestRepo() *fakeInterestRepo {
	return &fakeInterestRepo{nextID: 1}
}

func (f *fakeInterestRepo) Create(ctx context.Context, tx domain.Tx, in *domain.Interest) error {
	if f.err != nil {
		return f.err
	}
	in.ID = fmt.Sprintf("int-%d", f.nextID)
	f.nextID++
	f.interests = append(f.interests, in)
	return nil
}

func (f *fakeInterestRepo) DeleteByWorkshopAndUser(ctx context.Context, tx domain.Tx, workshopID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for i, in := range f.interests {
		if in.WorkshopID == workshopID && in.UserID == userID {
			f.interests = append(f.interests[:i], f.interests[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInterestRepo) ListByWorkshop(ctx context.Context, tx domain.Tx, workshopID string) ([]*domain.Interest, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Interest, 0)
	for _, in := range f.interests {
		if in.WorkshopID == workshopID {
			out = append(out, in)
		}
	}
	return out, nil
}

// fakeRefundRepo is an in-memory RefundRepository for tests.
type fakeRefundRepo struct {
	byID   map[string]*domain.Refund
	nextID int
	err    error
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{byID: make(map[string]*domain.Refund), nextID: 1}
}

func (f *fakeRefundRepo) Create(ctx context.Context, tx domain.Tx, r *domain.Refund) error {
	if f.err != nil {
		return f.err
	}
	r.ID = fmt.Sprintf("ref-%d", f.nextID)
	f.nextID++
	f.byID[r.ID] = r
	return nil
}

func (f *fakeRefundRepo) GetByID(ctx context.Context, tx domain.Tx, id string) (*domain.Refund, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRefundRepo) GetByRegistrationID(ctx context.Context, tx domain.Tx, registrationID string) (*domain.Refund, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.byID {
		if r.RegistrationID == registrationID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRefundRepo) UpdateStatus(ctx context.Context, tx domain.Tx, id string, to domain.RefundStatus, providerRefundID, processedBy *string, processedAt *time.Time) error {
	if f.err != nil {
		return f.err
	}
	r, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = to
	if providerRefundID != nil {
		r.ProviderRefundID = providerRefundID
	}
	if processedBy != nil {
		r.ProcessedBy = processedBy
	}
	if processedAt != nil {
		r.ProcessedAt = processedAt
	}
	return nil
}

// refundCall records one CreateRefund invocation on the fake provider.
type refundCall struct {
	PaymentIntentID string
	Amount          int64
	Reason          string
}

// fakePaymentProvider records provider calls and returns canned responses.
type fakePaymentProvider struct {
	intents map[string]*domain.PaymentIntent // returned by GetPaymentIntent

	createIntentErr error
	getIntentErr    error
	refundErr       error

	intentCalls  []domain.CreatePaymentIntentInput
	refundCalls  []refundCall
	nextIntentID int
}

func newFakePaymentProvider() *fakePaymentProvider {
	return &fakePaymentProvider{intents: make(map[string]*domain.PaymentIntent), nextIntentID: 1}
}

func (f *fakePaymentProvider) CreatePaymentIntent(ctx context.Context, in domain.CreatePaymentIntentInput) (*domain.PaymentIntent, error) {
	f.intentCalls = append(f.intentCalls, in)
	if f.createIntentErr != nil {
		return nil, f.createIntentErr
	}
	intent := &domain.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", f.nextIntentID),
		ClientSecret: fmt.Sprintf("pi_%d_secret", f.nextIntentID),
		Amount:       in.Amount,
		Currency:     in.Currency,
		Metadata:     in.Metadata,
	}
	f.nextIntentID++
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakePaymentProvider) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	if f.getIntentErr != nil {
		return nil, f.getIntentErr
	}
	if intent, ok := f.intents[id]; ok {
		return intent, nil
	}
	return nil, fmt.Errorf("no such payment intent: %s", id)
}

func (f *fakePaymentProvider) CreateRefund(ctx context.Context, paymentIntentID string, amount int64, reason string) (*domain.ProviderRefund, error) {
	f.refundCalls = append(f.refundCalls, refundCall{PaymentIntentID: paymentIntentID, Amount: amount, Reason: reason})
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &domain.ProviderRefund{ID: fmt.Sprintf("re_%d", len(f.refundCalls)), Amount: amount, Status: "succeeded"}, nil
}

func (f *fakePaymentProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (*domain.Subscription, error) {
	return &domain.Subscription{ID: "sub_1", Status: "active"}, nil
}

// fakeSettingsRepo is an in-memory SettingsRepository for tests.
type fakeSettingsRepo struct {
	values map[string]string
	err    error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: make(map[string]string)}
}

func (f *fakeSettingsRepo) Get(ctx context.Context, tx domain.Tx, key string) (*domain.Setting, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.values[key]; ok {
		return &domain.Setting{Key: key, Value: v, UpdatedAt: time.Now()}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSettingsRepo) Set(ctx context.Context, tx domain.Tx, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	return nil
}

// fakeEmailService records cancellation notices.
type fakeEmailService struct {
	sent []*domain.CancellationNoticeEmailData
	err  error
}

func (f *fakeEmailService) SendCancellationNotice(ctx context.Context, data *domain.CancellationNoticeEmailData) error {
	f.sent = append(f.sent, data)
	return f.err
}
