package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/invoicedesk-backend/internal/activity"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
)

type recordingActivity struct {
	entries []activity.Entry
}

func (r *recordingActivity) Record(_ context.Context, entry activity.Entry) {
	r.entries = append(r.entries, entry)
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func newTestService(t *testing.T) (Service, *recordingActivity) {
	t.Helper()
	recorder := &recordingActivity{}
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()), recorder)
	require.NoError(t, err)
	return svc, recorder
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	cases := map[string]ProductInput{
		"blank name":          {Name: "   ", Price: dec("10"), Quantity: dec("1")},
		"negative price":      {Name: "Garri", Price: dec("-1"), Quantity: dec("1")},
		"negative quantity":   {Name: "Garri", Price: dec("10"), Quantity: dec("-1")},
		"discount above":      {Name: "Garri", Price: dec("10"), DiscountedPrice: decPtr("11"), Quantity: dec("1")},
		"negative discount":   {Name: "Garri", Price: dec("10"), DiscountedPrice: decPtr("-1"), Quantity: dec("1")},
		"missing bundle pair": {Name: "Garri", Price: dec("10"), Quantity: dec("1"), BundleWith: uuidPtr(uuid.New())},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "ada@shop.ng", input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	require.Empty(t, recorder.entries)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestCreateUpdateDelete(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	stew, err := svc.Create(ctx, "ada@shop.ng", ProductInput{Name: "Stew", Price: dec("1500"), Quantity: dec("20")})
	require.NoError(t, err)

	rice, err := svc.Create(ctx, "ada@shop.ng", ProductInput{
		Name:            " Jollof rice ",
		Price:           dec("2000"),
		DiscountedPrice: decPtr("1800"),
		Quantity:        dec("12"),
		Category:        "food",
		BundleWith:      &stew.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "Jollof rice", rice.Name)
	require.Equal(t, &stew.ID, rice.BundleWith)

	_, err = svc.Update(ctx, "ada@shop.ng", rice.ID, UpdateProductInput{BundleWith: &rice.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "self bundle rejected")

	_, err = svc.Update(ctx, "ada@shop.ng", rice.ID, UpdateProductInput{Price: decPtr("1000")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "price below existing discount rejected")

	updated, err := svc.Update(ctx, "ada@shop.ng", rice.ID, UpdateProductInput{
		Price:         decPtr("1000"),
		ClearDiscount: true,
		ClearBundle:   true,
	})
	require.NoError(t, err)
	require.Nil(t, updated.DiscountedPrice)
	require.Nil(t, updated.BundleWith)
	require.True(t, updated.Price.Equal(dec("1000")))

	require.NoError(t, svc.Delete(ctx, "tunde@shop.ng", rice.ID))
	_, err = svc.Get(ctx, rice.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.True(t, pkgerrors.IsCode(svc.Delete(ctx, "tunde@shop.ng", rice.ID), pkgerrors.CodeNotFound))

	require.Len(t, recorder.entries, 4)
	require.Equal(t, "Created product Stew", recorder.entries[0].Action)
	require.Equal(t, "Updated product Jollof rice", recorder.entries[2].Action)
	require.Equal(t, enums.ActivityTypeWarning, recorder.entries[3].Type)
	require.Equal(t, "tunde@shop.ng", recorder.entries[3].Actor)
}

func TestCatalogPopulatesBundlePartner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	stew, err := svc.Create(ctx, "ada@shop.ng", ProductInput{Name: "Stew", Price: dec("1500"), Quantity: dec("0")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ada@shop.ng", ProductInput{Name: "Rice", Price: dec("2000"), Quantity: dec("3"), BundleWith: &stew.ID})
	require.NoError(t, err)

	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	rice := catalog[0]
	require.Equal(t, "Rice", rice.Name)
	require.True(t, rice.InStock)
	require.NotNil(t, rice.BundleWith)
	require.Equal(t, "Stew", rice.BundleWith.Name)
	require.False(t, catalog[1].InStock)
}

func TestPricingCatalogSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "ada@shop.ng", ProductInput{
		Name:            "Palm oil",
		Price:           dec("3000"),
		DiscountedPrice: decPtr("2500"),
		Quantity:        dec("7.5"),
		AllowFractional: true,
	})
	require.NoError(t, err)

	catalog, err := svc.PricingCatalog(ctx)
	require.NoError(t, err)
	p, ok := catalog.Product(created.ID)
	require.True(t, ok)
	require.True(t, p.Stock.Equal(dec("7.5")))
	require.NotNil(t, p.DiscountedPrice)
	require.True(t, p.DiscountedPrice.Equal(dec("2500")))
	require.True(t, p.AllowFractional)
}

func strPtr(v string) *string { return &v }

func TestImageURLMustComeFromUploads(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()), nil, WithImageBase("/uploads/"))
	require.NoError(t, err)
	ctx := context.Background()

	rejected := map[string]string{
		"foreign host":  "https://evil.example/x.png",
		"bare base":     "/uploads/",
		"sibling path":  "/uploadsx/a.png",
		"traversal":     "/uploads/../secrets.png",
		"javascript":    "javascript:alert(1)",
		"missing slash": "/uploads",
	}
	for name, raw := range rejected {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "ada@shop.ng", ProductInput{Name: "Garri", Price: dec("10"), Quantity: dec("1"), ImageURL: strPtr(raw)})
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	created, err := svc.Create(ctx, "ada@shop.ng", ProductInput{
		Name: "Garri", Price: dec("10"), Quantity: dec("1"), ImageURL: strPtr("/uploads/products/garri.png"),
	})
	require.NoError(t, err)
	require.Equal(t, "/uploads/products/garri.png", *created.ImageURL)

	_, err = svc.Update(ctx, "ada@shop.ng", created.ID, UpdateProductInput{ImageURL: strPtr("https://evil.example/x.png")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	updated, err := svc.Update(ctx, "ada@shop.ng", created.ID, UpdateProductInput{ImageURL: strPtr("")})
	require.NoError(t, err)
	require.Nil(t, updated.ImageURL)
}
