package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubstack/internal/domain"
)

func newRegistrationServiceForTest(wsRepo *fakeWorkshopRepo, regRepo *fakeRegistrationRepo, interestRepo *fakeInterestRepo, payments *fakePaymentProvider) domain.RegistrationService {
	return NewRegistrationService(&fakeTxManager{}, wsRepo, regRepo, interestRepo, payments, 5*time.Second)
}

func publishedWorkshop(t *testing.T, wsRepo *fakeWorkshopRepo) *domain.Workshop {
	t.Helper()
	w := testWorkshop(domain.WorkshopPlanned)
	require.NoError(t, wsRepo.Create(context.Background(), nil, w))
	w.Status = domain.WorkshopPublished
	return w
}

func TestRegistrationService_ToggleInterest(t *testing.T) {
	ctx := context.Background()

	t.Run("toggles on then off", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		interestRepo := newFakeInterestRepo()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), interestRepo, newFakePaymentProvider())
		w := testWorkshop(domain.WorkshopPlanned)
		require.NoError(t, wsRepo.Create(ctx, nil, w))

		action, err := svc.ToggleInterest(ctx, memberActor(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InterestExpressed, action)
		assert.Len(t, interestRepo.interests, 1)

		action, err = svc.ToggleInterest(ctx, memberActor(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InterestWithdrawn, action)
		assert.Empty(t, interestRepo.interests)
	})

	t.Run("only while planned", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), newFakePaymentProvider())
		w := publishedWorkshop(t, wsRepo)

		_, err := svc.ToggleInterest(ctx, memberActor(), w.ID)
		require.ErrorIs(t, err, domain.ErrWrongState)
	})
}

func TestRegistrationService_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("member pays the member price", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)

		intent, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.NoError(t, err)
		assert.Equal(t, w.PriceMember, intent.Amount)
		assert.Equal(t, w.Currency, intent.Currency)
		require.Len(t, payments.intentCalls, 1)
		assert.Equal(t, w.ID, payments.intentCalls[0].Metadata[domain.MetadataWorkshopID])
		assert.Equal(t, "user-1", payments.intentCalls[0].Metadata[domain.MetadataUserID])
	})

	t.Run("non-member pays the non-member price", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)
		guest := domain.Actor{UserID: "guest-1"}

		intent, err := svc.CreatePaymentIntent(ctx, guest, w.ID, domain.PaymentIntentRequest{Amount: w.PriceNonMember})
		require.NoError(t, err)
		assert.Equal(t, w.PriceNonMember, intent.Amount)
	})

	t.Run("amount mismatch rejected", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)

		_, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: 1})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, payments.intentCalls)
	})

	t.Run("full workshop rejected before the provider is called", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		regRepo := newFakeRegistrationRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, regRepo, newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)
		for i := 0; i < w.MaxCapacity; i++ {
			member := getMemberID(i)
			regRepo.add(&domain.Registration{WorkshopID: w.ID, MemberID: &member, Status: domain.RegistrationConfirmed})
		}

		_, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.ErrorIs(t, err, domain.ErrWorkshopFull)
		assert.Empty(t, payments.intentCalls)
	})

	t.Run("duplicate registration rejected", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		regRepo := newFakeRegistrationRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, regRepo, newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)
		member := "user-1"
		regRepo.add(&domain.Registration{WorkshopID: w.ID, MemberID: &member, Status: domain.RegistrationPending})

		_, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.ErrorIs(t, err, domain.ErrAlreadyRegistered)
		assert.Empty(t, payments.intentCalls)
	})

	t.Run("unpublished workshop rejected", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), newFakePaymentProvider())
		w := testWorkshop(domain.WorkshopPlanned)
		require.NoError(t, wsRepo.Create(ctx, nil, w))

		_, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.ErrorIs(t, err, domain.ErrWrongState)
	})
}

func TestRegistrationService_CompleteRegistration(t *testing.T) {
	ctx := context.Background()

	start := func(t *testing.T) (*fakeWorkshopRepo, *fakeRegistrationRepo, *fakePaymentProvider, domain.RegistrationService, *domain.Workshop) {
		t.Helper()
		wsRepo := newFakeWorkshopRepo()
		regRepo := newFakeRegistrationRepo()
		payments := newFakePaymentProvider()
		svc := newRegistrationServiceForTest(wsRepo, regRepo, newFakeInterestRepo(), payments)
		w := publishedWorkshop(t, wsRepo)
		return wsRepo, regRepo, payments, svc, w
	}

	succeededIntent := func(t *testing.T, payments *fakePaymentProvider, svc domain.RegistrationService, w *domain.Workshop, actor domain.Actor) *domain.PaymentIntent {
		t.Helper()
		intent, err := svc.CreatePaymentIntent(context.Background(), actor, w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.NoError(t, err)
		payments.intents[intent.ID].Status = domain.PaymentIntentSucceeded
		return intent
	}

	t.Run("confirms a registration from a succeeded intent", func(t *testing.T) {
		_, regRepo, payments, svc, w := start(t)
		intent := succeededIntent(t, payments, svc, w, memberActor())

		reg, err := svc.CompleteRegistration(ctx, memberActor(), w.ID, intent.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationConfirmed, reg.Status)
		assert.Equal(t, w.PriceMember, reg.AmountPaid)
		assert.Equal(t, w.Currency, reg.Currency)
		require.NotNil(t, reg.CheckoutSessionID)
		assert.Equal(t, intent.ID, *reg.CheckoutSessionID)
		require.NotNil(t, reg.MemberID)
		assert.Equal(t, "user-1", *reg.MemberID)
		assert.Len(t, regRepo.byID, 1)
	})

	t.Run("rejects an intent that has not succeeded", func(t *testing.T) {
		_, regRepo, payments, svc, w := start(t)
		intent, err := svc.CreatePaymentIntent(ctx, memberActor(), w.ID, domain.PaymentIntentRequest{Amount: w.PriceMember})
		require.NoError(t, err)
		payments.intents[intent.ID].Status = "requires_payment_method"

		_, err = svc.CompleteRegistration(ctx, memberActor(), w.ID, intent.ID)
		require.ErrorIs(t, err, domain.ErrPaymentNotSucceeded)
		assert.Empty(t, regRepo.byID)
	})

	t.Run("rejects an intent for another workshop", func(t *testing.T) {
		wsRepo, regRepo, payments, svc, w := start(t)
		other := publishedWorkshop(t, wsRepo)
		intent := succeededIntent(t, payments, svc, other, memberActor())

		_, err := svc.CompleteRegistration(ctx, memberActor(), w.ID, intent.ID)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, regRepo.byID)
	})

	t.Run("capacity is re-checked at completion", func(t *testing.T) {
		_, regRepo, payments, svc, w := start(t)
		intent := succeededIntent(t, payments, svc, w, memberActor())
		// Workshop fills up between intent creation and completion.
		for i := 0; i < w.MaxCapacity; i++ {
			member := getMemberID(i)
			regRepo.add(&domain.Registration{WorkshopID: w.ID, MemberID: &member, Status: domain.RegistrationConfirmed})
		}

		_, err := svc.CompleteRegistration(ctx, memberActor(), w.ID, intent.ID)
		require.ErrorIs(t, err, domain.ErrWorkshopFull)
	})
}

func TestRegistrationService_CancelRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels the caller's active registration", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		regRepo := newFakeRegistrationRepo()
		svc := newRegistrationServiceForTest(wsRepo, regRepo, newFakeInterestRepo(), newFakePaymentProvider())
		w := publishedWorkshop(t, wsRepo)
		member := "user-1"
		regRepo.add(&domain.Registration{WorkshopID: w.ID, MemberID: &member, Status: domain.RegistrationConfirmed})

		reg, err := svc.CancelRegistration(ctx, memberActor(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RegistrationCancelled, reg.Status)
		require.NotNil(t, reg.CancelledAt)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		wsRepo := newFakeWorkshopRepo()
		svc := newRegistrationServiceForTest(wsRepo, newFakeRegistrationRepo(), newFakeInterestRepo(), newFakePaymentProvider())
		w := publishedWorkshop(t, wsRepo)

		_, err := svc.CancelRegistration(ctx, memberActor(), w.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRegistrationService_GetWorkshopAttendees(t *testing.T) {
	ctx := context.Background()

	wsRepo := newFakeWorkshopRepo()
	regRepo := newFakeRegistrationRepo()
	svc := newRegistrationServiceForTest(wsRepo, regRepo, newFakeInterestRepo(), newFakePaymentProvider())
	w := publishedWorkshop(t, wsRepo)
	name := "Grace Hopper"
	email := "grace@example.com"
	regRepo.add(&domain.Registration{WorkshopID: w.ID, ExternalName: &name, ExternalEmail: &email, Status: domain.RegistrationConfirmed})

	t.Run("admin lists attendees", func(t *testing.T) {
		attendees, err := svc.GetWorkshopAttendees(ctx, adminActor(), w.ID)
		require.NoError(t, err)
		require.Len(t, attendees, 1)
		assert.Equal(t, "Grace Hopper", attendees[0].DisplayName)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		_, err := svc.GetWorkshopAttendees(ctx, memberActor(), w.ID)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func getMemberID(i int) string {
	return fmt.Sprintf("filler-%d", i)
}
