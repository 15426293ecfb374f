package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const (
	invoiceCompany  = "TechStore"
	invoiceCurrency = "USD"
	maxSearchResult = 10
)

func (k *toolkit) salesTools() []*Tool {
	return []*Tool{
		{
			Name:    ToolGetAllProducts,
			Desc:    "Return every product available in the store with name, price, category, and stock. Use this when the user wants to browse or see all products.",
			Handler: k.getAllProducts,
		},
		{
			Name: ToolSearchProduct,
			Desc: "Search for a specific product by name and check whether it is available in stock. Use this when the user asks about a specific product, its price, or availability.",
			Params: map[string]*schema.ParameterInfo{
				"name": {Type: schema.String, Desc: "Product name or keyword to search for, e.g. 'laptop' or 'mechanical keyboard'", Required: true},
			},
			Handler: k.searchProduct,
		},
		{
			Name: ToolAddToCart,
			Desc: "Add a specific number of units of a product to the user's cart. Use the product id from get_all_products or search_product. If the product is already in the cart, the quantity is increased.",
			Params: map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Id of the product from get_all_products or search_product", Required: true},
				"quantity":   {Type: schema.Integer, Desc: "Number of units to add, at least 1", Required: true},
			},
			RequiresAuth: true,
			AuthMessage:  "You need to be logged in to add items to the cart.",
			Handler:      k.addToCart,
		},
		{
			Name: ToolRemoveFromCart,
			Desc: "Remove a product entirely from the user's cart. This removes all units of that product.",
			Params: map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Id of the product to remove entirely from the cart", Required: true},
			},
			RequiresAuth: true,
			AuthMessage:  "You need to be logged in to modify the cart.",
			Handler:      k.removeFromCart,
		},
		{
			Name: ToolClearCart,
			Desc: "Clear all items from the user's cart at once, or remove a single specific product. Always confirm with the user before clearing the entire cart.",
			Params: map[string]*schema.ParameterInfo{
				"mode":       {Type: schema.String, Desc: "'all' clears every item from the cart. 'item' removes one specific product.", Enum: []string{"all", "item"}, Required: true},
				"product_id": {Type: schema.String, Desc: "Id of the product to remove when mode is 'item'. Use empty string '' when mode is 'all'.", Required: true},
			},
			RequiresAuth: true,
			AuthMessage:  "You need to be logged in to modify the cart.",
			Handler:      k.clearCart,
		},
		{
			Name: ToolCheckout,
			Desc: "Checkout the user's cart: fetches the cart and current prices, creates a TechStore invoice with a line-item price snapshot, then clears the cart. Call this directly after the user confirms; the tool reads the cart itself.",
			Params: map[string]*schema.ParameterInfo{
				"confirm":       {Type: schema.String, Desc: "Must be 'yes' to confirm the checkout and generate the invoice.", Enum: []string{"yes"}, Required: true},
				"billing_email": {Type: schema.String, Desc: "Email for the invoice. Use empty string '' to fall back to the user's account email.", Required: true},
			},
			RequiresAuth: true,
			AuthMessage:  "You need to be logged in to checkout.",
			Handler:      k.checkout,
		},
	}
}

func productPayload(p storex.Product) map[string]any {
	return map[string]any{
		"id":             p.ID,
		"name":           p.Name,
		"category":       p.Category,
		"price":          formatPrice(p.Price),
		"raw_price":      p.Price,
		"description":    p.Description,
		"stock_quantity": p.StockQuantity,
		"in_stock":       p.StockQuantity > 0,
	}
}

func (k *toolkit) getAllProducts(ctx context.Context, _ contractx.AgentContext, _ Args) contractx.ToolResult {
	products, err := k.store.ListProducts(ctx)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolGetAllProducts).Msg("list products failed")
		return FailWith(ToolGetAllProducts, "Could not load products right now.", map[string]any{"products": []any{}})
	}
	if len(products) == 0 {
		return FailWith(ToolGetAllProducts, "No products found in the store.", map[string]any{"products": []any{}})
	}

	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productPayload(p))
	}
	return Ok(ToolGetAllProducts, fmt.Sprintf("Found %d product(s).", len(out)), map[string]any{
		"total":    len(out),
		"products": out,
	})
}

func (k *toolkit) searchProduct(ctx context.Context, _ contractx.AgentContext, args Args) contractx.ToolResult {
	name := args.String("name")
	if name == "" {
		return Fail(ToolSearchProduct, "Please provide a product name to search for.")
	}

	candidates, err := k.store.FindProductsByName(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolSearchProduct).Msg("find products failed")
		return Fail(ToolSearchProduct, "Could not search products right now.")
	}

	results := rank(candidates, productScore(name), maxSearchResult, positive)
	if len(results) == 0 {
		return FailWith(ToolSearchProduct, fmt.Sprintf("No product found matching %q.", name), map[string]any{"products": []any{}})
	}

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		p := productPayload(r.item)
		if r.item.StockQuantity > 0 {
			p["availability"] = fmt.Sprintf("In stock (%d units available)", r.item.StockQuantity)
		} else {
			p["availability"] = "Out of stock"
		}
		p["relevance_score"] = r.score
		out = append(out, p)
	}
	return Ok(ToolSearchProduct, fmt.Sprintf("Found %d product(s) matching %q.", len(out), name), map[string]any{
		"found":    len(out),
		"products": out,
	})
}

// addToCart checks stock against the quantity already in the cart plus the
// requested quantity, then writes the line, all in one transaction.
func (k *toolkit) addToCart(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	userID := actx.User()
	productID := args.String("product_id")
	quantity := args.Int("quantity")
	if productID == "" {
		return Fail(ToolAddToCart, "product_id is required.")
	}
	if quantity < 1 {
		return Fail(ToolAddToCart, "Quantity must be at least 1.")
	}

	var (
		product *storex.Product
		line    *storex.CartItem
		updated bool
	)
	err := k.store.RunInTx(ctx, func(ctx context.Context, tx storex.Store) error {
		var err error
		product, err = tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		existing, err := tx.GetCartItem(ctx, userID, productID)
		switch {
		case errors.Is(err, storex.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		}

		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if product.StockQuantity < total {
			return storex.ErrOutOfStock
		}

		if existing != nil {
			existing.Quantity = total
			line, updated = existing, true
		} else {
			line = &storex.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		}
		return tx.UpsertCartItem(ctx, line)
	})

	switch {
	case errors.Is(err, storex.ErrOutOfStock):
		return Fail(ToolAddToCart, fmt.Sprintf("Not enough stock. Only %d unit(s) of %q available.", product.StockQuantity, product.Name))
	case errors.Is(err, storex.ErrNotFound) && product == nil:
		return Fail(ToolAddToCart, fmt.Sprintf("Product not found with id: %s", productID))
	case err != nil:
		log.Warn().Err(err).Str("tool", ToolAddToCart).Str("user_id", userID).Msg("add to cart failed")
		return Fail(ToolAddToCart, "Could not update your cart right now.")
	}

	if updated {
		return Ok(ToolAddToCart, fmt.Sprintf("Updated %q quantity to %dx in your cart.", product.Name, line.Quantity), map[string]any{
			"product": map[string]any{
				"id":             product.ID,
				"name":           product.Name,
				"quantity":       line.Quantity,
				"price_per_unit": product.Price,
			},
		})
	}
	subtotal := roundCents(product.Price * float64(quantity))
	return Ok(ToolAddToCart, fmt.Sprintf("Added %dx %q to your cart! Subtotal: %s.", quantity, product.Name, formatPrice(subtotal)), map[string]any{
		"product": map[string]any{
			"id":             product.ID,
			"name":           product.Name,
			"quantity":       quantity,
			"price_per_unit": product.Price,
			"subtotal":       subtotal,
		},
	})
}

func (k *toolkit) removeFromCart(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	return k.removeLine(ctx, ToolRemoveFromCart, actx.User(), args.String("product_id"))
}

func (k *toolkit) removeLine(ctx context.Context, tool, userID, productID string) contractx.ToolResult {
	if productID == "" {
		return Fail(tool, "product_id is required.")
	}

	line, err := k.store.GetCartItem(ctx, userID, productID)
	if errors.Is(err, storex.ErrNotFound) {
		return Fail(tool, "That product is not in your cart.")
	}
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Str("user_id", userID).Msg("load cart line failed")
		return Fail(tool, "Could not update your cart right now.")
	}

	removed, err := k.store.DeleteCartItem(ctx, userID, productID)
	if err != nil {
		log.Warn().Err(err).Str("tool", tool).Str("user_id", userID).Msg("delete cart line failed")
		return Fail(tool, "Could not update your cart right now.")
	}
	if !removed {
		return Fail(tool, "That product is not in your cart.")
	}

	name := "the product"
	if line.Product != nil {
		name = line.Product.Name
	}
	return Ok(tool, fmt.Sprintf("Removed %q from your cart.", name), nil)
}

func (k *toolkit) clearCart(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	userID := actx.User()
	if args.String("mode") == "item" {
		if args.String("product_id") == "" {
			return Fail(ToolClearCart, "product_id is required when mode is 'item'.")
		}
		return k.removeLine(ctx, ToolClearCart, userID, args.String("product_id"))
	}

	n, err := k.store.DeleteCartItems(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolClearCart).Str("user_id", userID).Msg("clear cart failed")
		return Fail(ToolClearCart, "Failed to clear cart.")
	}
	return Ok(ToolClearCart, "Your cart has been cleared.", map[string]any{"removed_items": n})
}

var errEmptyCart = errors.New("cart is empty")

// checkout snapshots the cart into an invoice and clears the cart. Header,
// items and cart clear commit together or not at all.
func (k *toolkit) checkout(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	userID := actx.User()
	billingEmail := args.String("billing_email")
	if billingEmail == "" {
		if u, err := k.store.GetUserByID(ctx, userID); err == nil {
			billingEmail = u.Email
		}
	}

	var (
		invoice *storex.Invoice
		items   []storex.InvoiceItem
	)
	err := k.store.RunInTx(ctx, func(ctx context.Context, tx storex.Store) error {
		cart, err := tx.GetCartItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return errEmptyCart
		}

		subtotal := 0.0
		items = make([]storex.InvoiceItem, 0, len(cart))
		for _, line := range cart {
			if line.Product == nil {
				return fmt.Errorf("%w: product %s for cart line", storex.ErrNotFound, line.ProductID)
			}
			total := roundCents(line.Product.Price * float64(line.Quantity))
			subtotal += total
			items = append(items, storex.InvoiceItem{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				UnitPrice:   line.Product.Price,
				Quantity:    line.Quantity,
				TotalPrice:  total,
			})
		}

		num, err := tx.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		paidAt := k.now().UTC()
		invoice = &storex.Invoice{
			InvoiceNumber: num,
			UserID:        userID,
			Status:        storex.InvoiceStatusPaid,
			Currency:      invoiceCurrency,
			Subtotal:      roundCents(subtotal),
			TaxTotal:      0,
			TotalAmount:   roundCents(subtotal),
			BillingEmail:  billingEmail,
			PaidAt:        &paidAt,
			CreatedAt:     paidAt,
		}
		if err := tx.CreateInvoice(ctx, invoice); err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		if err := tx.CreateInvoiceItems(ctx, items); err != nil {
			return err
		}
		_, err = tx.DeleteCartItems(ctx, userID)
		return err
	})

	switch {
	case errors.Is(err, errEmptyCart):
		return Fail(ToolCheckout, "Your cart is empty. Add some products before checking out.")
	case err != nil:
		log.Error().Err(err).Str("tool", ToolCheckout).Str("user_id", userID).Msg("checkout failed, rolled back")
		return Fail(ToolCheckout, "Checkout failed and nothing was charged. Please try again.")
	}

	lines := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, map[string]any{
			"name":       it.ProductName,
			"quantity":   it.Quantity,
			"unit_price": formatPrice(it.UnitPrice),
			"total":      formatPrice(it.TotalPrice),
		})
	}
	return Ok(ToolCheckout, "Order placed successfully!", map[string]any{
		"invoice": map[string]any{
			"invoice_number": fmt.Sprintf("INV-%04d", invoice.InvoiceNumber),
			"status":         invoice.Status,
			"billing_email":  invoice.BillingEmail,
			"company":        invoiceCompany,
			"items":          lines,
			"subtotal":       formatPrice(invoice.Subtotal),
			"tax":            formatPrice(invoice.TaxTotal),
			"total":          formatPrice(invoice.TotalAmount),
			"total_amount":   invoice.TotalAmount,
			"created_at":     invoice.CreatedAt.Format(time.RFC3339),
		},
	})
}
