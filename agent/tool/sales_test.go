package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
)

const (
	productA = "11111111-1111-1111-1111-111111111111"
	productB = "22222222-2222-2222-2222-222222222222"
)

func cartQuantities(t *testing.T, st *recordingStore, userID string) map[string]int {
	t.Helper()

	items, err := st.GetCartItems(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetCartItems() error = %v", err)
	}
	out := map[string]int{}
	for _, it := range items {
		out[it.ProductID] = it.Quantity
	}
	return out
}

func addArgs(productID string, qty int) map[string]any {
	return map[string]any{"product_id": productID, "quantity": float64(qty)}
}

func TestAddToCartIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "Desk Lamp", 25, 50)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, nil)

	split := createUser(t, st, "split")
	single := createUser(t, st, "single")

	for _, q := range []int{3, 4} {
		if res := call(t, r, contractx.AgentTypeSales, split, ToolAddToCart, addArgs(productA, q)); !res.Success {
			t.Fatalf("add_to_cart(%d) = %+v", q, res)
		}
	}
	if res := call(t, r, contractx.AgentTypeSales, single, ToolAddToCart, addArgs(productA, 7)); !res.Success {
		t.Fatalf("add_to_cart(7) = %+v", res)
	}

	got := cartQuantities(t, st, split.User())
	want := cartQuantities(t, st, single.User())
	if len(got) != 1 || got[productA] != 7 || want[productA] != 7 {
		t.Fatalf("cart after split adds = %v, single add = %v", got, want)
	}
}

func TestAddToCartChecksCombinedStock(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "P1", 10, 5)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "stock")

	if res := call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 2)); !res.Success {
		t.Fatalf("first add = %+v", res)
	}
	res := call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 4))
	if res.Success {
		t.Fatalf("second add succeeded: %+v", res)
	}
	if !strings.Contains(res.Message, "Not enough stock") {
		t.Fatalf("second add message = %q", res.Message)
	}
	if got := cartQuantities(t, st, actx.User()); got[productA] != 2 {
		t.Fatalf("cart quantity = %d, want 2", got[productA])
	}

	res = call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs("no-such-product", 1))
	if res.Success || !strings.Contains(res.Message, "Product not found") {
		t.Fatalf("unknown product = %+v", res)
	}
	res = call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 0))
	if res.Success {
		t.Fatalf("zero quantity succeeded: %+v", res)
	}
}

func TestCheckoutCreatesInvoiceAndEmptiesCart(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "Keyboard", 50, 10)
	createProduct(t, base, productB, "Mouse", 25, 10)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "buyer")

	call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 2))
	call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productB, 2))

	res := call(t, r, contractx.AgentTypeSales, actx, ToolCheckout, map[string]any{"confirm": "yes", "billing_email": ""})
	if !res.Success {
		t.Fatalf("checkout = %+v", res)
	}
	inv := res.Data["invoice"].(map[string]any)
	if inv["invoice_number"] != "INV-0001" || inv["company"] != "TechStore" || inv["billing_email"] != "buyer@example.com" {
		t.Fatalf("invoice = %+v", inv)
	}

	invoices, err := st.ListInvoices(context.Background(), actx.User())
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(invoices))
	}
	if invoices[0].TotalAmount != 150 || len(invoices[0].Items) != 2 {
		t.Fatalf("invoice total = %v items = %d", invoices[0].TotalAmount, len(invoices[0].Items))
	}
	sum := 0.0
	for _, it := range invoices[0].Items {
		sum += it.TotalPrice
	}
	if sum != 150 {
		t.Fatalf("line items sum = %v", sum)
	}
	if got := cartQuantities(t, st, actx.User()); len(got) != 0 {
		t.Fatalf("cart after checkout = %v", got)
	}

	res = call(t, r, contractx.AgentTypeSales, actx, ToolCheckout, map[string]any{"confirm": "yes", "billing_email": ""})
	if res.Success || !strings.Contains(res.Message, "cart is empty") {
		t.Fatalf("empty checkout = %+v", res)
	}
}

func TestCheckoutRollsBackWhenItemsFail(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "Monitor", 300, 4)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "rollback")
	call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 1))

	st.failInvoiceItems = true
	res := call(t, r, contractx.AgentTypeSales, actx, ToolCheckout, map[string]any{"confirm": "yes", "billing_email": "billing@example.com"})
	if res.Success {
		t.Fatalf("checkout succeeded despite item failure: %+v", res)
	}

	invoices, err := st.ListInvoices(context.Background(), actx.User())
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(invoices) != 0 {
		t.Fatalf("invoice header left behind: %+v", invoices)
	}
	if got := cartQuantities(t, st, actx.User()); got[productA] != 1 {
		t.Fatalf("cart after failed checkout = %v", got)
	}
}

func TestUserScopedToolsFailClosedWithoutUser(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "Cable", 5, 100)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, &fakeMailer{configured: true})

	calls := []struct {
		agentType contractx.AgentType
		tool      string
		args      map[string]any
	}{
		{contractx.AgentTypeSales, ToolAddToCart, addArgs(productA, 1)},
		{contractx.AgentTypeSales, ToolRemoveFromCart, map[string]any{"product_id": productA}},
		{contractx.AgentTypeSales, ToolClearCart, map[string]any{"mode": "all", "product_id": ""}},
		{contractx.AgentTypeSales, ToolCheckout, map[string]any{"confirm": "yes", "billing_email": ""}},
		{contractx.AgentTypeSupport, ToolCreateSupportTicket, map[string]any{"subject": "s", "message": "m", "priority": "low", "referenced_kb_id": ""}},
		{contractx.AgentTypeAssistant, ToolFetchTasks, map[string]any{"filter": "all"}},
		{contractx.AgentTypeAssistant, ToolManageTask, map[string]any{"action": "create", "task_id": "", "title": "t", "description": "", "priority": "low", "due_at": ""}},
	}
	for _, c := range calls {
		res := call(t, r, c.agentType, contractx.AgentContext{}, c.tool, c.args)
		if res.Success {
			t.Fatalf("%s succeeded without a user: %+v", c.tool, res)
		}
		if res.Message == "" {
			t.Fatalf("%s returned an empty message", c.tool)
		}
	}
	if n := st.writes.Load(); n != 0 {
		t.Fatalf("store writes without a user = %d", n)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	t.Parallel()

	base := newSQLiteStore(t)
	createProduct(t, base, productA, "Hub", 30, 10)
	createProduct(t, base, productB, "Dock", 90, 10)
	st := newRecordingStore(base)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "remover")

	res := call(t, r, contractx.AgentTypeSales, actx, ToolRemoveFromCart, map[string]any{"product_id": productA})
	if res.Success || res.Message != "That product is not in your cart." {
		t.Fatalf("remove missing = %+v", res)
	}

	call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productA, 1))
	call(t, r, contractx.AgentTypeSales, actx, ToolAddToCart, addArgs(productB, 1))

	res = call(t, r, contractx.AgentTypeSales, actx, ToolClearCart, map[string]any{"mode": "item", "product_id": ""})
	if res.Success {
		t.Fatalf("item mode without product succeeded: %+v", res)
	}
	res = call(t, r, contractx.AgentTypeSales, actx, ToolClearCart, map[string]any{"mode": "item", "product_id": productA})
	if !res.Success || !strings.Contains(res.Message, "Hub") {
		t.Fatalf("clear item = %+v", res)
	}
	if got := cartQuantities(t, st, actx.User()); len(got) != 1 || got[productB] != 1 {
		t.Fatalf("cart after item clear = %v", got)
	}
	res = call(t, r, contractx.AgentTypeSales, actx, ToolClearCart, map[string]any{"mode": "all", "product_id": ""})
	if !res.Success {
		t.Fatalf("clear all = %+v", res)
	}
	if got := cartQuantities(t, st, actx.User()); len(got) != 0 {
		t.Fatalf("cart after clear all = %v", got)
	}
}

func TestGetAllProductsEmptyCatalog(t *testing.T) {
	t.Parallel()

	r := newTestCatalog(t, newSQLiteStore(t), nil)
	res := call(t, r, contractx.AgentTypeSales, contractx.AgentContext{}, ToolGetAllProducts, nil)
	if res.Success || res.Message != "No products found in the store." {
		t.Fatalf("get_all_products = %+v", res)
	}
}
