package pricing

import (
	"testing"

	"github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

type fixture struct {
	bundled  Product
	partner  Product
	discount Product
	loose    Product
	catalog  StaticCatalog
}

func newFixture() fixture {
	partnerID := uuid.New()
	f := fixture{
		partner: Product{ID: partnerID, Name: "B", Price: dec("30"), Stock: dec("100")},
		discount: Product{
			ID: uuid.New(), Name: "Rice", Price: dec("1000"), DiscountedPrice: decPtr("900"), Stock: dec("10"),
		},
		loose: Product{
			ID: uuid.New(), Name: "Beans", Price: dec("400"), Stock: dec("2.5"), AllowFractional: true,
		},
	}
	f.bundled = Product{ID: uuid.New(), Name: "A", Price: dec("2500"), Stock: dec("5"), BundleWith: &partnerID}
	f.catalog = NewCatalog(f.bundled, f.partner, f.discount, f.loose)
	return f
}

func TestSelectProductAddsBundlePartner(t *testing.T) {
	f := newFixture()

	items, err := SelectProduct(nil, f.bundled.ID, f.catalog)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ProductID != f.bundled.ID || !items[0].Quantity.Equal(one) || !items[0].Price.Equal(dec("2500")) {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].ProductID != f.partner.ID || !items[1].Quantity.Equal(one) || !items[1].Price.Equal(dec("30")) {
		t.Fatalf("unexpected bundle item %+v", items[1])
	}

	totals := ComputeTotals(items, decimal.Zero, decimal.Zero)
	if !totals.Total.Equal(dec("2530")) {
		t.Fatalf("expected total 2530, got %s", totals.Total)
	}
}

func TestSelectProductTwiceDoesNotDuplicateBundle(t *testing.T) {
	f := newFixture()

	items, err := SelectProduct(nil, f.bundled.ID, f.catalog)
	if err != nil {
		t.Fatalf("first select: %v", err)
	}
	items, err = SelectProduct(items, f.bundled.ID, f.catalog)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}

	partners := 0
	for _, item := range items {
		if item.ProductID == f.partner.ID {
			partners++
		}
	}
	if partners != 1 {
		t.Fatalf("expected one bundle line, got %d", partners)
	}
}

func TestSelectProductUsesFullPriceAtQuantityOne(t *testing.T) {
	f := newFixture()
	items, err := SelectProduct(nil, f.discount.ID, f.catalog)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !items[0].Price.Equal(dec("1000")) {
		t.Fatalf("expected full price, got %s", items[0].Price)
	}
}

func TestSelectProductUnknown(t *testing.T) {
	f := newFixture()
	existing := []LineItem{{ProductID: f.partner.ID, Quantity: one, Price: dec("30")}}
	items, err := SelectProduct(existing, uuid.New(), f.catalog)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("draft must be unchanged, got %d items", len(items))
	}
}

func TestSelectProductDoesNotMutateInput(t *testing.T) {
	f := newFixture()
	existing := make([]LineItem, 1, 8)
	existing[0] = LineItem{ProductID: f.discount.ID, Quantity: one, Price: dec("1000")}

	if _, err := SelectProduct(existing, f.bundled.ID, f.catalog); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(existing) != 1 || existing[:2][1].ProductID != uuid.Nil {
		t.Fatalf("input backing array was modified")
	}
}

func TestReplaceProduct(t *testing.T) {
	f := newFixture()
	items := []LineItem{{ProductID: f.discount.ID, Name: "Rice", Quantity: dec("3"), Price: dec("900")}}

	out, err := ReplaceProduct(items, 0, f.bundled.ID, f.catalog)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(out) != 2 || out[0].ProductID != f.bundled.ID || out[1].ProductID != f.partner.ID {
		t.Fatalf("unexpected items %+v", out)
	}
	if items[0].ProductID != f.discount.ID {
		t.Fatalf("input mutated")
	}

	if _, err := ReplaceProduct(items, 4, f.bundled.ID, f.catalog); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected validation for bad index, got %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture()
	riceLine := LineItem{ProductID: f.discount.ID, Name: "Rice", Quantity: one, Price: dec("1000")}
	beansLine := LineItem{ProductID: f.loose.ID, Name: "Beans", Quantity: one, Price: dec("400")}

	cases := []struct {
		name      string
		item      LineItem
		qty       string
		wantPrice string
		wantCode  errors.Code
	}{
		{name: "discount applies at two", item: riceLine, qty: "2", wantPrice: "900"},
		{name: "discount applies up to stock", item: riceLine, qty: "10", wantPrice: "900"},
		{name: "fractional rejected", item: riceLine, qty: "1.5", wantCode: errors.CodeValidation},
		{name: "over stock rejected", item: riceLine, qty: "11", wantCode: errors.CodeValidation},
		{name: "zero rejected", item: riceLine, qty: "0", wantCode: errors.CodeValidation},
		{name: "fractional allowed", item: beansLine, qty: "0.25", wantPrice: "400"},
		{name: "fractional over stock rejected", item: beansLine, qty: "2.75", wantCode: errors.CodeValidation},
		{name: "no discount configured", item: beansLine, qty: "2", wantPrice: "400"},
		{name: "unknown product", item: LineItem{ProductID: uuid.New(), Quantity: one}, qty: "1", wantCode: errors.CodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := UpdateQuantity(tc.item, dec(tc.qty), f.catalog)
			if tc.wantCode != "" {
				if !errors.IsCode(err, tc.wantCode) {
					t.Fatalf("expected %s, got %v", tc.wantCode, err)
				}
				if !got.Quantity.Equal(tc.item.Quantity) || !got.Price.Equal(tc.item.Price) {
					t.Fatalf("rejected update must leave item unchanged, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Quantity.Equal(dec(tc.qty)) {
				t.Fatalf("expected quantity %s, got %s", tc.qty, got.Quantity)
			}
			if !got.Price.Equal(dec(tc.wantPrice)) {
				t.Fatalf("expected price %s, got %s", tc.wantPrice, got.Price)
			}
		})
	}
}

func TestUpdateQuantityRejectsNonIntegerForWholeProducts(t *testing.T) {
	f := newFixture()
	item := LineItem{ProductID: f.discount.ID, Quantity: one, Price: dec("1000")}
	for _, q := range []string{"0.5", "1.01", "2.999", "9.5"} {
		if _, err := UpdateQuantity(item, dec(q), f.catalog); err == nil {
			t.Fatalf("quantity %s should be rejected", q)
		}
	}
}

func TestUpdateQuantityAtLeavesDraftUnchangedOnReject(t *testing.T) {
	f := newFixture()
	items, _ := SelectProduct(nil, f.discount.ID, f.catalog)

	out, err := UpdateQuantityAt(items, 0, dec("50"), f.catalog)
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if !out[0].Quantity.Equal(one) {
		t.Fatalf("draft changed on rejection")
	}

	out, err = UpdateQuantityAt(items, 0, dec("3"), f.catalog)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !out[0].Price.Equal(dec("900")) || !items[0].Price.Equal(dec("1000")) {
		t.Fatalf("expected new draft priced at discount and old draft untouched")
	}
}

func TestRemoveAt(t *testing.T) {
	f := newFixture()
	items, _ := SelectProduct(nil, f.bundled.ID, f.catalog)
	out, err := RemoveAt(items, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(out) != 1 || out[0].ProductID != f.partner.ID {
		t.Fatalf("unexpected items %+v", out)
	}
	if _, err := RemoveAt(out, 1); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestReprice(t *testing.T) {
	f := newFixture()

	submitted := []LineItem{
		{ProductID: f.discount.ID, Name: "tampered", Quantity: dec("2"), Price: dec("1")},
		{ProductID: f.partner.ID, Quantity: one, Price: dec("30")},
	}
	out, err := Reprice(submitted, f.catalog)
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if out[0].Name != "Rice" || !out[0].Price.Equal(dec("900")) {
		t.Fatalf("expected catalogue name and discounted price, got %+v", out[0])
	}

	split := []LineItem{
		{ProductID: f.discount.ID, Quantity: dec("6")},
		{ProductID: f.discount.ID, Quantity: dec("5")},
	}
	if _, err := Reprice(split, f.catalog); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected stock check across rows, got %v", err)
	}

	if _, err := Reprice([]LineItem{{ProductID: f.discount.ID, Quantity: dec("1.5")}}, f.catalog); !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("expected fractional rejection, got %v", err)
	}
}
