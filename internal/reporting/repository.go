package reporting

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository struct {
	DB *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) ListOrders(ctx context.Context, f ListFilter) (Page, error) {
	if err := f.Normalize(); err != nil {
		return Page{}, err
	}
	listQuery, countQuery, args := buildListQuery(f)

	var total int
	if err := r.getNamed(ctx, &total, countQuery, args); err != nil {
		return Page{}, err
	}
	var rows []OrderRow
	if err := r.selectNamed(ctx, &rows, listQuery, args); err != nil {
		return Page{}, err
	}
	return NewPage(rows, f, total), nil
}

type summaryRow struct {
	Orders  int                 `db:"orders"`
	Revenue decimal.Decimal     `db:"revenue"`
	Average decimal.NullDecimal `db:"average"`
	Min     decimal.NullDecimal `db:"min"`
	Max     decimal.NullDecimal `db:"max"`
}

func (r *Repository) Summary(ctx context.Context, f SummaryFilter) (Summary, error) {
	where, args := buildSummaryWhere(f, "")
	joinedWhere, joinedArgs := buildSummaryWhere(f, "o.")
	dailyWhere, dailyArgs := buildDailyWhere(f)

	totalsQuery := `SELECT count(*) AS orders,
       COALESCE(sum(total), 0) AS revenue,
       round(avg(total), 2) AS average,
       min(total) AS min,
       max(total) AS max
  FROM orders` + where
	byMethodQuery := `SELECT payment_method, count(*) AS orders, COALESCE(sum(total), 0) AS revenue
  FROM orders` + where + `
 GROUP BY payment_method
 ORDER BY revenue DESC, payment_method`
	dailyQuery := `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
       count(*) AS orders, sum(total) AS revenue, round(avg(total), 2) AS average
  FROM orders` + dailyWhere + `
 GROUP BY day
 ORDER BY day DESC`
	employeesQuery := `SELECT employee_id, count(*) AS orders, sum(total) AS revenue, round(avg(total), 2) AS average
  FROM orders` + where + `
 GROUP BY employee_id
 ORDER BY revenue DESC, employee_id
 LIMIT :top`
	productsQuery := `SELECT v.product_id, sum(l.quantity) AS units, sum(l.line_subtotal) AS revenue
  FROM order_lines l
  JOIN variants v ON v.id = l.variant_id
  JOIN orders o ON o.id = l.order_id` + joinedWhere + `
 GROUP BY v.product_id
 ORDER BY units DESC, v.product_id
 LIMIT :top`
	customersQuery := `SELECT customer_id, count(*) AS orders, sum(total) AS spent, max(created_at) AS last_purchase
  FROM orders` + where + ` AND customer_id IS NOT NULL
 GROUP BY customer_id
 ORDER BY spent DESC, customer_id
 LIMIT :top`
	args["top"] = TopN
	joinedArgs["top"] = TopN

	var row summaryRow
	if err := r.getNamed(ctx, &row, totalsQuery, args); err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Orders:          row.Orders,
		Revenue:         row.Revenue,
		Average:         row.Average.Decimal,
		Min:             row.Min.Decimal,
		Max:             row.Max.Decimal,
		ByPaymentMethod: []MethodTotal{},
		Daily:           []DayTotal{},
		TopEmployees:    []EmployeeTotal{},
		TopProducts:     []ProductTotal{},
		TopCustomers:    []CustomerTotal{},
	}
	if err := r.selectNamed(ctx, &sum.ByPaymentMethod, byMethodQuery, args); err != nil {
		return Summary{}, err
	}
	if err := r.selectNamed(ctx, &sum.Daily, dailyQuery, dailyArgs); err != nil {
		return Summary{}, err
	}
	if err := r.selectNamed(ctx, &sum.TopEmployees, employeesQuery, args); err != nil {
		return Summary{}, err
	}
	if err := r.selectNamed(ctx, &sum.TopProducts, productsQuery, joinedArgs); err != nil {
		return Summary{}, err
	}
	if err := r.selectNamed(ctx, &sum.TopCustomers, customersQuery, args); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (r *Repository) getNamed(ctx context.Context, dest any, query string, args map[string]any) error {
	stmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.GetContext(ctx, dest, args)
}

func (r *Repository) selectNamed(ctx context.Context, dest any, query string, args map[string]any) error {
	stmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.SelectContext(ctx, dest, args)
}
