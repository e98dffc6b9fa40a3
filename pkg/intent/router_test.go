package intent

import (
	"context"
	"testing"

	"github.com/Sternrassler/storefront/internal/testutil"
	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_EmptyCart(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "What's in my cart?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "empty")
	assert.Equal(t, []string{ActionViewCart}, reply.Actions)
}

func TestRoute_AddProduct(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "Add product 1 to cart")
	require.NoError(t, err)
	assert.Equal(t, []string{ActionAddToCart}, reply.Actions)
	assert.Contains(t, reply.Text, "Wireless Headphones")

	c := f.cart(t)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(1), c.Lines[0].ProductID)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestRoute_BareProductReferenceFallsBack(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "product 1")
	require.NoError(t, err)
	assert.Equal(t, fallbackText, reply.Text)
	assert.Empty(t, reply.Actions)
	assert.True(t, f.cart(t).IsEmpty())
}

func TestRoute_Cascade(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"What's in my cart?", ActionViewCart},
		{"What’s in my cart?", ActionViewCart},
		{"show me my cart", ActionViewCart},
		{"CART", ActionViewCart},
		{"search for headphones", ActionSearchProducts},
		{"Do you have any red shoes?", ActionSearchProducts},
		{"find me a poster", ActionSearchProducts},
		{"tell me about product 2", ActionProductDetails},
		{"details for #2", ActionProductDetails},
		{"Add product 1 to cart", ActionAddToCart},
		{"put item 2 in my basket", ActionAddToCart},
		{"buy 1", ActionAddToCart},
		{"one more of product 1", ActionIncreaseQuantity},
		{"increase 1", ActionIncreaseQuantity},
		{"decrease item 1", ActionDecreaseQuantity},
		{"remove one of product 1", ActionDecreaseQuantity},
		{"remove product 3 from my cart", ActionDecreaseQuantity},
		{"delete item 3", ActionDecreaseQuantity},
		{"take product 3 out of my cart", ActionDecreaseQuantity},
		{"take out item 3", ActionDecreaseQuantity},
		{"remove all items from my cart", ActionClearCart},
		{"remove everything", ActionClearCart},
		{"delete my cart", ActionClearCart},
		{"clear my cart", ActionClearCart},
		{"empty my cart please", ActionClearCart},
		{"start over", ActionClearCart},
		{"hello", IntentHelp},
		{"what can you do?", IntentHelp},
		{"product 1", IntentFallback},
		{"address change", IntentFallback},
		{"", IntentFallback},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := IntentFallback
			msg := normalize(tt.message)
			for _, rl := range rules {
				if rl.match(msg) {
					got = rl.name
					break
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoute_RemovePhrasingDecrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, msg := range []string{"add product 1", "add product 1"} {
		_, err := f.router.Route(ctx, f.id, msg)
		require.NoError(t, err, msg)
	}

	reply, err := f.router.Route(ctx, f.id, "remove product 1 from my cart")
	require.NoError(t, err)
	assert.Equal(t, []string{ActionDecreaseQuantity}, reply.Actions)

	reply, err = f.router.Route(ctx, f.id, "take product 1 out of my cart")
	require.NoError(t, err)
	assert.Equal(t, []string{ActionDecreaseQuantity}, reply.Actions)
	assert.True(t, f.cart(t).IsEmpty())
}

func TestRoute_UnchangedCartListsNoAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		message  string
		contains string
	}{
		{"add product 3 to my cart", "out of stock"},
		{"add product 99", "#99"},
		{"one more of product 1", "not in your cart"},
		{"decrease product 2", "not in your cart"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, err := f.router.Route(ctx, f.id, tt.message)
			require.NoError(t, err)
			assert.Contains(t, reply.Text, tt.contains)
			assert.Empty(t, reply.Actions)
			assert.NotNil(t, reply.Actions)
		})
	}
	assert.True(t, f.cart(t).IsEmpty())
}

func TestRoute_MissingProductIDAsksInsteadOfGuessing(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "add this to my cart")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Which product do you mean?")
	assert.Empty(t, reply.Actions)
	assert.True(t, f.cart(t).IsEmpty())
}

func TestRoute_MissingSearchTextAsks(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "search for products")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "What would you like me to search for?")
	assert.Empty(t, reply.Actions)
}

func TestRoute_SearchUsesExtractedQuery(t *testing.T) {
	f := newFixture(t)

	reply, err := f.router.Route(context.Background(), f.id, "Do you have any red shoes?")
	require.NoError(t, err)
	assert.Equal(t, "red shoes", f.catalog.lastQuery())
	assert.Contains(t, reply.Text, "Red Running Shoes")
}

func TestRoute_QuantityFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, msg := range []string{"add product 2", "one more of product 2", "one more of product 2", "decrease product 2"} {
		_, err := f.router.Route(ctx, f.id, msg)
		require.NoError(t, err, msg)
	}

	line, ok := f.cart(t).Line(2)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)

	reply, err := f.router.Route(ctx, f.id, "clear my cart")
	require.NoError(t, err)
	assert.Equal(t, []string{ActionClearCart}, reply.Actions)
	assert.True(t, f.cart(t).IsEmpty())
}

func TestRoute_AddFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.tier.SetFailing(true)

	reply, err := f.router.Route(context.Background(), f.id, "add product 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrTierDown)
	assert.Equal(t, failureText, reply.Text)
	assert.Empty(t, reply.Actions)
}

func TestRoute_NoIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.router.Route(context.Background(), cart.Identity{}, "what's in my cart")
	assert.ErrorIs(t, err, cart.ErrNoIdentity)
}

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		msg    string
		want   int64
		wantOK bool
	}{
		{"add product 7 to cart", 7, true},
		{"add item #12", 12, true},
		{"details for id 3", 3, true},
		{"add #4", 4, true},
		{"add 2 of product 9", 9, true},
		{"buy 5", 5, true},
		{"add product 0", 0, false},
		{"add the blue one", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got, ok := extractProductID(normalize(tt.msg))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"search for wireless headphones", "wireless headphones"},
		{"Looking for the red shoes please", "red shoes"},
		{"find me some posters!", "posters"},
		{"do you sell vintage posters?", "vintage posters"},
		{"show me your cheapest mugs", "cheapest mugs"},
		{"search products", ""},
		{"search for products", ""},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, extractQuery(normalize(tt.msg)))
		})
	}
}
