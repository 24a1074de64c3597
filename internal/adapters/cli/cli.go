package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/internal/app"
	"orderdesk/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "classify":
		result, err := svc.ClassifySKUs(ctx)
		if err != nil {
			log.Fatalf("Classification failed: %v", err)
		}
		printClassification(result.Rows)

	case "create-po":
		if len(args) < 3 {
			log.Fatal(`Usage: app create-po "<outlet>" "<brand>" [order-number]`)
		}
		req := app.CreatePORequest{Outlet: args[1], Brand: args[2]}
		if len(args) > 3 {
			req.OrderNumber = args[3]
		}
		result, err := svc.CreatePO(ctx, req)
		if err != nil {
			log.Fatalf("PO creation failed: %v", err)
		}
		fmt.Printf("Purchase order %s created.\n", result.OrderNumber)

	case "create-batch":
		result, err := svc.CreatePOsFromBatch(ctx)
		if err != nil {
			log.Fatalf("Batch generation failed: %v", err)
		}
		fmt.Printf("Created %d purchase orders from batch.\n", result.Processed)

	case "approve-po":
		if len(args) < 2 {
			log.Fatal("Usage: app approve-po <order-number>")
		}
		if err := svc.ApprovePO(ctx, args[1]); err != nil {
			log.Fatalf("Approval failed: %v", err)
		}
		fmt.Printf("Order %s approved.\n", args[1])

	case "send-po":
		if len(args) < 2 {
			log.Fatal("Usage: app send-po <order-number>")
		}
		if err := svc.SendPO(ctx, args[1]); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		fmt.Printf("Order %s sent.\n", args[1])

	case "send-approved":
		result, err := svc.SendApprovedPOs(ctx)
		if err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		fmt.Printf("Sent %d approved orders.\n", result.Processed)

	case "refresh-values":
		result, err := svc.RefreshPOValues(ctx)
		if err != nil {
			log.Fatalf("Refresh failed: %v", err)
		}
		fmt.Printf("Refreshed %d order values.\n", result.Processed)

	case "create-co":
		runCreateCO(ctx, svc, args[1:])

	case "approve-co":
		if len(args) < 2 {
			log.Fatal("Usage: app approve-co <co-number> [approved-by]")
		}
		approvedBy := ""
		if len(args) > 2 {
			approvedBy = args[2]
		}
		if err := svc.ApproveCustomerOrder(ctx, args[1], approvedBy); err != nil {
			log.Fatalf("Approval failed: %v", err)
		}
		fmt.Printf("Customer order %s approved.\n", args[1])

	case "create-grn":
		runCreateGRN(ctx, svc, args[1:])

	case "approve-grn":
		if len(args) < 2 {
			log.Fatal("Usage: app approve-grn <grn-number>")
		}
		if err := svc.ApproveGRN(ctx, args[1]); err != nil {
			log.Fatalf("Approval failed: %v", err)
		}
		fmt.Printf("Receipt %s approved.\n", args[1])

	case "eligible":
		orders, err := svc.EligibleOrdersForGRN(ctx)
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		printEligible(orders)

	case "items":
		items, err := svc.AvailableItems(ctx)
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		for _, item := range items {
			fmt.Printf("  %-20s %s\n", item.Code, item.Name)
		}

	case "close-old":
		result, err := svc.CloseOldOrders(ctx)
		if err != nil {
			log.Fatalf("Close sweep failed: %v", err)
		}
		fmt.Printf("Closed %d orders.\n", result.Processed)

	default:
		log.Fatalf("Unknown command: %s\nAvailable: classify, create-po, create-batch, approve-po, send-po, send-approved, refresh-values, create-co, approve-co, create-grn, approve-grn, eligible, items, close-old", args[0])
	}
}

func runCreateCO(ctx context.Context, svc app.ApplicationService, args []string) {
	if len(args) < 5 {
		log.Fatal(`Usage: app create-co "<outlet>" "<brand>" "<customer>" <item-code> <qty>`)
	}
	qty, err := strconv.Atoi(args[4])
	if err != nil {
		log.Fatalf("Invalid quantity: %v", err)
	}
	result, err := svc.CreateCustomerOrder(ctx, app.CreateCustomerOrderRequest{
		Outlet:       args[0],
		Brand:        args[1],
		CustomerName: args[2],
		ItemCode:     args[3],
		Quantity:     qty,
	})
	if err != nil {
		log.Fatalf("CO creation failed: %v", err)
	}
	order := result.Order
	fmt.Printf("Customer order %s created (status %s, value %s).\n", order.Number, order.Status, order.Value.StringFixed(2))
}

func runCreateGRN(ctx context.Context, svc app.ApplicationService, args []string) {
	if len(args) < 3 {
		log.Fatal("Usage: app create-grn <order-number> <invoice> <amount> [date YYYY-MM-DD] [notes]")
	}
	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		log.Fatalf("Invalid amount: %v", err)
	}
	req := app.CreateGRNRequest{OrderNumber: args[0], InvoiceNumber: args[1], Amount: amount}
	if len(args) > 3 {
		req.Date, err = time.Parse("2006-01-02", args[3])
		if err != nil {
			log.Fatalf("Invalid date: %v", err)
		}
	}
	if len(args) > 4 {
		req.Notes = args[4]
	}
	result, err := svc.CreateGRN(ctx, req)
	if err != nil {
		log.Fatalf("GRN creation failed: %v", err)
	}
	fmt.Printf("Receipt %s recorded against order %s.\n", result.Receipt.Number, result.Receipt.OrderNumber)
}

func printClassification(rows []core.SkuClassification) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf("  %-92s\n", "SKU CLASSIFICATION")
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf("  %-16s %-12s %-4s %-6s %-8s %10s %10s %-14s\n",
		"SKU", "BRAND", "REV", "VELO", "MARGIN", "SUGGESTED", "ORDER", "RECO")
	fmt.Println(strings.Repeat("-", 96))
	for _, r := range rows {
		fmt.Printf("  %-16s %-12s %-4s %-6s %-8s %10d %10d %-14s\n",
			r.SKU, r.Brand, r.RevClass, r.VelocityClass, r.MarginClass,
			r.SuggestedQty, r.FinalOrderQty, r.UsageReco)
	}
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf("  %d SKUs classified\n", len(rows))
}

func printEligible(orders []core.ReceivableOrder) {
	if len(orders) == 0 {
		fmt.Println("No orders are currently receivable.")
		return
	}
	fmt.Printf("  %-12s %-28s %-16s %s\n", "ORDER", "OUTLET", "BRAND", "STATUS")
	fmt.Println(strings.Repeat("-", 72))
	for _, o := range orders {
		fmt.Printf("  %-12s %-28s %-16s %s\n", o.OrderNumber, o.Outlet, o.Brand, o.Status)
	}
}
