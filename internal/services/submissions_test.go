package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradegatehq/tradegate/internal/database/testutil"
	"github.com/tradegatehq/tradegate/internal/feed"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

func TestCatalogServiceAnonymousAndOwnedRequests(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewCatalogService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	anonymous, err := svc.Create(ctx, CreateCatalogRequestInput{
		Company: "Acme Imports",
		Email:   "Buyer@Example.com",
	})
	require.NoError(t, err)
	require.Nil(t, anonymous.UserID)
	require.Equal(t, "buyer@example.com", anonymous.Email)

	owned, err := svc.Create(ctx, CreateCatalogRequestInput{
		UserID:  "user-1",
		Company: "Globex",
		Email:   "ops@globex.example",
	})
	require.NoError(t, err)
	require.NotNil(t, owned.UserID)

	mine, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, owned.ID, mine[0].ID)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.Create(ctx, CreateCatalogRequestInput{Company: "", Email: ""})
	require.Error(t, err)
}

func TestCatalogServiceReviewPublishesUpdate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	svc, err := NewCatalogService(db, bus)
	require.NoError(t, err)
	ctx := context.Background()

	request, err := svc.Create(ctx, CreateCatalogRequestInput{
		Company: "Acme Imports",
		Email:   "buyer@example.com",
	})
	require.NoError(t, err)

	events := make(chan feed.Event, 4)
	h := registry.Open(ctx, feed.OpenInput{
		Table: "catalog_requests",
		Fetch: feed.NewTableFetcher(db, "catalog_requests", feed.Filter{}),
		OnUpdate: func(evt feed.Event, rows []feed.Row) {
			events <- evt
		},
	})
	defer h.Close()

	status := "contacted"
	notes := "Catalogue sent by post"
	reviewed, err := svc.Review(ctx, request.ID, ReviewInput{Status: &status, AdminNotes: &notes})
	require.NoError(t, err)
	require.Equal(t, "contacted", reviewed.Status)

	evt := waitForEvent(t, events)
	require.Equal(t, "pending", evt.Old.String("status"))
	require.Equal(t, "contacted", evt.New.String("status"))
	require.Equal(t, notes, evt.New.String("admin_notes"))
}

func TestApplicationServiceLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewApplicationService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	application, err := svc.Create(ctx, CreateApplicationInput{
		Name:     "Dana Smith",
		Email:    "dana@example.com",
		Position: "Logistics Coordinator",
	})
	require.NoError(t, err)
	require.Equal(t, "pending", application.Status)

	_, err = svc.Create(ctx, CreateApplicationInput{Name: "No Position", Email: "x@example.com"})
	require.Error(t, err)

	status := "rejected"
	reviewed, err := svc.Review(ctx, application.ID, ReviewInput{Status: &status})
	require.NoError(t, err)
	require.Equal(t, "rejected", reviewed.Status)

	require.NoError(t, svc.Delete(ctx, application.ID))
	_, err = svc.GetByID(ctx, application.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestContactServiceLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewContactService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	submission, err := svc.Create(ctx, CreateContactInput{
		Name:    "Dana Smith",
		Email:   "dana@example.com",
		Subject: "Shipping terms",
		Message: "What incoterms do you support?",
	})
	require.NoError(t, err)
	require.Equal(t, "pending", submission.Status)

	_, err = svc.Create(ctx, CreateContactInput{Name: "No Message", Email: "x@example.com"})
	require.Error(t, err)

	status := "completed"
	notes := "Answered by email"
	reviewed, err := svc.Review(ctx, submission.ID, ReviewInput{Status: &status, AdminNotes: &notes})
	require.NoError(t, err)
	require.Equal(t, "completed", reviewed.Status)
	require.Equal(t, notes, reviewed.AdminNotes)
}

func TestPartnershipServiceLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewPartnershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	partnership, err := svc.Create(ctx, CreatePartnershipInput{
		Company:  "Globex",
		Email:    "partners@globex.example",
		Proposal: "Joint distribution in the Benelux region",
	})
	require.NoError(t, err)
	require.Equal(t, "pending", partnership.Status)

	status := "approved"
	reviewed, err := svc.Review(ctx, partnership.ID, ReviewInput{Status: &status})
	require.NoError(t, err)
	require.Equal(t, "approved", reviewed.Status)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestProductServiceCatalogManagement(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewProductService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateProductInput{
		Name:        "Industrial Valve",
		Description: "Stainless steel ball valve",
		Category:    "valves",
		Specs:       map[string]any{"material": "stainless", "dn": 50},
		Status:      "approved",
	})
	require.NoError(t, err)
	require.Equal(t, "approved", product.Status)
	require.NotEmpty(t, product.Specs)

	_, err = svc.Create(ctx, CreateProductInput{Name: "  "})
	require.Error(t, err)

	listed, err := svc.List(ctx, ListProductsInput{Category: "valves", Search: "valve"})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	name := "Industrial Ball Valve"
	updated, err := svc.Update(ctx, product.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)

	require.NoError(t, svc.Delete(ctx, product.ID))
	_, err = svc.GetByID(ctx, product.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
