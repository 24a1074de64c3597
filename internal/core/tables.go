package core

// Table names. Each one corresponds to a sheet in the workbook the system
// originated on; behind the tablestore boundary they are just named tables.
const (
	TableSalesData         = "SalesData"
	TableSKUClassification = "SKUClassification"
	TableBinningConfig     = "BinningConfig"
	TableBusinessRules     = "BusinessRules"
	TableOrderTracking     = "POTracking"
	TableOrderLineItems    = "POLineItems"
	TableCustomerOrders    = "CustomerOrders"
	TableCustomerMaster    = "CustomerMaster"
	TableGRNTracking       = "GRNTracking"
	TableDistributorMatrix = "Brand_Outlet_Distributor"
	TableVendorDetails     = "Vendor_Details"
	TableCounters          = "Counters"
	TableOrderBatch        = "POBatch"
	TableItemMaster        = "ItemMaster"
)

// salesDataHeader is the expected header of the sales-history table.
var salesDataHeader = []string{
	"SKU", "ItemName", "Brand", "OutletName", "SoldQty", "Revenue",
	"GrossMargin", "CostPrice", "LastBillDate", "FirstInwardDate", "CurrentStock",
}

var classificationHeader = []string{
	"Outlet", "Brand", "SKU", "ItemName", "AvgCost", "RevClass", "MarginClass",
	"VelocityClass", "BinQty", "SuggestedQty", "CS", "FinalOrderQty", "UsageReco",
	"Justification",
}

var binningConfigHeader = []string{"Outlet", "BinIndex", "MaxAvgCost", "PackQty"}

var businessRulesHeader = []string{
	"RuleName", "Vendor", "Brand", "ProductFilter", "Outlet", "StockCondition",
	"StockValue1", "StockValue2", "OrderQuantity", "AlternateQuantity",
	"Priority", "Active", "Notes",
}

var orderTrackingHeader = []string{
	"PONumber", "POType", "POName", "OutletName", "Brand", "POAmount", "Status",
	"Approved", "EmailSent", "DateCreated", "DateApproved", "ApprovalType",
	"DistributorName", "DistributorEmail", "FulfillmentAmount",
	"FulfillmentPercentage",
}

var orderLineItemsHeader = []string{
	"LineItemID", "PONumber", "OrderType", "POName", "Outlet", "Brand", "SKU",
	"ItemName", "AvgCost", "OrderQty", "Date", "CurrentStock", "Justification",
}

var customerOrdersHeader = []string{
	"CONumber", "OutletName", "Brand", "CustomerName", "CustomerEmail",
	"CustomerPhone", "CustomerPIC", "ItemCode", "ItemName", "Quantity",
	"COValue", "Status", "Approved", "Sent", "DateCreated", "DateApproved",
	"ApprovalType", "ApprovedBy", "Notes", "DistributorName", "DistributorEmail",
}

var customerMasterHeader = []string{
	"CustomerID", "CustomerName", "CustomerEmail", "CustomerPhone",
	"CustomerPIC", "OutletName", "DateFirstOrder", "TotalOrders", "LastOrderDate",
}

var grnTrackingHeader = []string{
	"GRNNumber", "PONumber", "OutletName", "Brand", "InvoiceNumber", "GRNDate",
	"GRNAmount", "Approved", "ApprovalType", "DateApproved", "Notes",
}

// The distributor matrix table has brands down the first column and one
// column per outlet, so it carries no fixed header here. Vendor details keep
// the column names of the workbook this system replaced.
var vendorDetailsHeader = []string{"DISTRIBUTOR NAME", "EMAIL ID"}

var countersHeader = []string{"Scope", "LastValue"}

var orderBatchHeader = []string{"Outlet", "Brand", "PONumber", "Status"}
