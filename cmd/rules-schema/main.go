// Command rules-schema prints the JSON Schema describing one row of the
// business-rules table. The buying team edits that table by hand, so the
// schema doubles as documentation and as a validator input for anyone
// importing rules from an external sheet.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
)

// ruleRow mirrors the columns of the business-rules table. Empty matcher
// fields mean "ANY" (match everything).
type ruleRow struct {
	RuleName       string  `json:"rule_name" jsonschema_description:"Human-readable rule name, quoted back in the order justification"`
	Vendor         string  `json:"vendor,omitempty" jsonschema_description:"Distributor name to match, empty matches any vendor"`
	Brand          string  `json:"brand,omitempty" jsonschema_description:"Brand to match, empty matches any brand"`
	ProductFilter  string  `json:"product_filter,omitempty" jsonschema_description:"Case-insensitive substring matched against the item name, empty matches any item"`
	Outlet         string  `json:"outlet,omitempty" jsonschema_description:"Outlet name to match, empty matches any outlet"`
	StockCondition string  `json:"stock_condition" jsonschema:"enum=<=,enum=>=,enum==,enum=between" jsonschema_description:"Comparison applied to the item's current stock"`
	StockValue1    float64 `json:"stock_value_1" jsonschema_description:"Threshold for the comparison, lower bound when the condition is 'between'"`
	StockValue2    float64 `json:"stock_value_2,omitempty" jsonschema_description:"Upper bound, only used when the condition is 'between' (both bounds inclusive)"`
	OrderQuantity  int     `json:"order_quantity" jsonschema:"minimum=0" jsonschema_description:"Quantity to order when the stock condition holds"`
	AlternateQty   int     `json:"alternate_qty,omitempty" jsonschema:"minimum=0" jsonschema_description:"Quantity to order when the rule matches the item but the stock condition fails"`
	Priority       int     `json:"priority,omitempty" jsonschema_description:"Evaluation order, lower wins; rows without a priority sort last"`
	Active         bool    `json:"active" jsonschema_description:"Inactive rules are skipped entirely"`
	Notes          string  `json:"notes,omitempty" jsonschema_description:"Free text appended to the justification"`
}

func main() {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v ruleRow
	schema := reflector.Reflect(v)

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
