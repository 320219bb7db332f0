package reporting

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-retail-orders/internal/orders"
)

// buildListQuery renders the listing and count statements as sqlx named
// queries. f must be normalized; the ORDER BY column comes from sortColumns.
func buildListQuery(f ListFilter) (list, count string, args map[string]any) {
	conditions := []string{}
	args = map[string]any{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.OrderType != "" {
		conditions = append(conditions, "order_type = :order_type")
		args["order_type"] = string(f.OrderType)
	}
	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.EmployeeID != "" {
		conditions = append(conditions, "employee_id = :employee_id")
		args["employee_id"] = f.EmployeeID
	}
	if f.BranchID != "" {
		conditions = append(conditions, "branch_id = :branch_id")
		args["branch_id"] = f.BranchID
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, "created_at <= :to")
		args["to"] = *f.To
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	count = "SELECT count(*) FROM orders" + where
	list = fmt.Sprintf(`SELECT id, code, customer_id, employee_id, branch_id, order_type,
       payment_method, status, total, created_at
  FROM orders%s
 ORDER BY %s %s, id
 LIMIT :limit OFFSET :offset`, where, sortColumns[f.SortBy], f.SortOrder)
	args["limit"] = f.Limit
	args["offset"] = f.Offset()
	return list, count, args
}

// buildSummaryWhere restricts the summary to settled orders. alias
// qualifies the orders columns when the query joins other tables.
func buildSummaryWhere(f SummaryFilter, alias string) (string, map[string]any) {
	conditions := []string{settledCondition(alias)}
	args := map[string]any{}

	if f.BranchID != "" {
		conditions = append(conditions, alias+"branch_id = :branch_id")
		args["branch_id"] = f.BranchID
	}
	if f.From != nil {
		conditions = append(conditions, alias+"created_at >= :from")
		args["from"] = *f.From
	}
	if f.To != nil {
		conditions = append(conditions, alias+"created_at <= :to")
		args["to"] = *f.To
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// buildDailyWhere is the daily window: settled orders since f.DailySince,
// optionally for one branch.
func buildDailyWhere(f SummaryFilter) (string, map[string]any) {
	conditions := []string{settledCondition(""), "created_at >= :since"}
	args := map[string]any{"since": f.DailySince}
	if f.BranchID != "" {
		conditions = append(conditions, "branch_id = :branch_id")
		args["branch_id"] = f.BranchID
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func settledCondition(alias string) string {
	settled := make([]string, 0, len(orders.SettledStatuses))
	for _, s := range orders.SettledStatuses {
		settled = append(settled, "'"+string(s)+"'")
	}
	return alias + "status IN (" + strings.Join(settled, ", ") + ")"
}
