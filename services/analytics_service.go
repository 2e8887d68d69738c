package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/models"
	"github.com/aerocomidas/restaurant-pos/utils"
)

// unspecifiedLocation groups orders whose table carries no location label.
const unspecifiedLocation = "unspecified"

// defaultLookbackDays is the dashboard window when no range is given.
const defaultLookbackDays = 30

// AnalyticsService computes read-only aggregates over order history. Every
// method is a pure function of the rows in the requested range: identical
// inputs yield identical outputs, empty ranges yield zero-valued results.
//
// Sums run in-process on decimals rather than in SQL; the sqlite driver
// stores decimal columns as text, so database-side SUM would fall back to
// float arithmetic and drift. Monetary results are rounded to 2 places,
// half away from zero, after summation.
type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// DateRange is an optional inclusive [Start, End] filter on order creation
// time. A nil bound is unbounded.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (as *AnalyticsService) ordersInRange(r DateRange, preloadItems bool) ([]models.Order, error) {
	query := as.DB.Model(&models.Order{})
	if preloadItems {
		query = query.Preload("Items")
	}
	if r.Start != nil {
		query = query.Where("created_at >= ?", *r.Start)
	}
	if r.End != nil {
		query = query.Where("created_at <= ?", *r.End)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, utils.Storagef("query orders", err)
	}
	return orders, nil
}

func sumTotals(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return total
}

type AverageTicketResult struct {
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

// AverageTicket returns the mean order total over the range. An empty range
// yields zeros, never an error.
func (as *AnalyticsService) AverageTicket(r DateRange) (*AverageTicketResult, error) {
	orders, err := as.ordersInRange(r, false)
	if err != nil {
		return nil, err
	}

	result := &AverageTicketResult{
		AverageTicket: decimal.Zero,
		TotalRevenue:  decimal.Zero,
	}
	if len(orders) == 0 {
		return result, nil
	}

	revenue := sumTotals(orders)
	count := decimal.NewFromInt(int64(len(orders)))
	result.TotalOrders = len(orders)
	result.TotalRevenue = utils.Round2(revenue)
	result.AverageTicket = utils.Round2(revenue.Div(count))
	return result, nil
}

type TopSellingItem struct {
	ProductName   string          `json:"product_name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	OrderCount    int             `json:"order_count"`
}

// TopSellingItems flattens all in-range line items, merges them by exact
// product name and returns the limit best sellers by quantity. Ties keep
// the order in which a product name first appeared in the scanned items.
func (as *AnalyticsService) TopSellingItems(r DateRange, limit int) ([]TopSellingItem, error) {
	if limit <= 0 {
		limit = 10
	}

	orders, err := as.ordersInRange(r, true)
	if err != nil {
		return nil, err
	}

	type group struct {
		quantity decimal.Decimal
		revenue  decimal.Decimal
		orders   map[uint]struct{}
		qty      int
	}
	index := make(map[string]int)
	names := make([]string, 0)
	groups := make([]*group, 0)

	for _, order := range orders {
		for _, item := range order.Items {
			i, ok := index[item.ProductName]
			if !ok {
				i = len(groups)
				index[item.ProductName] = i
				names = append(names, item.ProductName)
				groups = append(groups, &group{
					quantity: decimal.Zero,
					revenue:  decimal.Zero,
					orders:   make(map[uint]struct{}),
				})
			}
			g := groups[i]
			g.qty += item.Quantity
			g.revenue = g.revenue.Add(item.LineTotal())
			g.orders[item.OrderID] = struct{}{}
		}
	}

	result := make([]TopSellingItem, 0, len(groups))
	for i, g := range groups {
		result = append(result, TopSellingItem{
			ProductName:   names[i],
			TotalQuantity: g.qty,
			TotalRevenue:  utils.Round2(g.revenue),
			OrderCount:    len(g.orders),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalQuantity > result[j].TotalQuantity
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type HourlySales struct {
	Hour          int             `json:"hour"`
	OrderCount    int             `json:"order_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

type SalesByHourResult struct {
	HourlyData   []HourlySales   `json:"hourly_data"`
	PeakHour     int             `json:"peak_hour"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int             `json:"total_orders"`
}

// SalesByHour buckets in-range orders by the UTC hour of their creation
// time, aggregated across all days in the range. All 24 hours are emitted,
// populated or not; the peak hour is the busiest one, lowest hour on ties.
func (as *AnalyticsService) SalesByHour(r DateRange) (*SalesByHourResult, error) {
	orders, err := as.ordersInRange(r, false)
	if err != nil {
		return nil, err
	}

	var counts [24]int
	var revenues [24]decimal.Decimal
	for h := range revenues {
		revenues[h] = decimal.Zero
	}
	for _, o := range orders {
		h := o.CreatedAt.UTC().Hour()
		counts[h]++
		revenues[h] = revenues[h].Add(o.TotalAmount)
	}

	result := &SalesByHourResult{
		HourlyData:   make([]HourlySales, 24),
		TotalRevenue: utils.Round2(sumTotals(orders)),
		TotalOrders:  len(orders),
	}
	peak, peakCount := 0, 0
	for h := 0; h < 24; h++ {
		entry := HourlySales{
			Hour:          h,
			OrderCount:    counts[h],
			TotalRevenue:  utils.Round2(revenues[h]),
			AverageTicket: decimal.Zero,
		}
		if counts[h] > 0 {
			entry.AverageTicket = utils.Round2(revenues[h].Div(decimal.NewFromInt(int64(counts[h]))))
		}
		result.HourlyData[h] = entry
		if counts[h] > peakCount {
			peak, peakCount = h, counts[h]
		}
	}
	result.PeakHour = peak
	return result, nil
}

type DailyRevenuePoint struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	OrderID uint            `json:"order_id"`
}

type StatusSlice struct {
	Status     models.OrderStatus `json:"status"`
	Count      int                `json:"count"`
	Percentage float64            `json:"percentage"`
}

type DashboardSummary struct {
	PeriodStart        time.Time           `json:"period_start"`
	PeriodEnd          time.Time           `json:"period_end"`
	TotalRevenue       decimal.Decimal     `json:"total_revenue"`
	TotalOrders        int                 `json:"total_orders"`
	AverageTicket      decimal.Decimal     `json:"average_ticket"`
	PendingOrders      int                 `json:"pending_orders"`
	DailyRevenue       []DailyRevenuePoint `json:"daily_revenue"`
	StatusDistribution []StatusSlice       `json:"status_distribution"`
}

// Dashboard summarizes the range, defaulting to the last 30 days. The
// daily revenue series emits one point per order, not pre-aggregated by
// day; consumers bucket it themselves.
func (as *AnalyticsService) Dashboard(r DateRange) (*DashboardSummary, error) {
	now := time.Now().UTC()
	if r.Start == nil {
		start := now.AddDate(0, 0, -defaultLookbackDays)
		r.Start = &start
	}
	if r.End == nil {
		r.End = &now
	}

	orders, err := as.ordersInRange(r, false)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		PeriodStart:   *r.Start,
		PeriodEnd:     *r.End,
		TotalRevenue:  decimal.Zero,
		AverageTicket: decimal.Zero,
		TotalOrders:   len(orders),
	}

	revenue := sumTotals(orders)
	summary.TotalRevenue = utils.Round2(revenue)
	if len(orders) > 0 {
		summary.AverageTicket = utils.Round2(revenue.Div(decimal.NewFromInt(int64(len(orders)))))
	}

	statusCounts := make(map[models.OrderStatus]int)
	summary.DailyRevenue = make([]DailyRevenuePoint, 0, len(orders))
	for _, o := range orders {
		statusCounts[o.Status]++
		if o.Status == models.OrderInProgress {
			summary.PendingOrders++
		}
		summary.DailyRevenue = append(summary.DailyRevenue, DailyRevenuePoint{
			Date:    o.CreatedAt,
			Revenue: utils.Round2(o.TotalAmount),
			OrderID: o.ID,
		})
	}
	sort.SliceStable(summary.DailyRevenue, func(i, j int) bool {
		return summary.DailyRevenue[i].Date.Before(summary.DailyRevenue[j].Date)
	})

	summary.StatusDistribution = make([]StatusSlice, 0, len(statusCounts))
	for _, status := range []models.OrderStatus{models.OrderInProgress, models.OrderDelivered, models.OrderPaid, models.OrderCancelled} {
		count, ok := statusCounts[status]
		if !ok {
			continue
		}
		summary.StatusDistribution = append(summary.StatusDistribution, StatusSlice{
			Status:     status,
			Count:      count,
			Percentage: utils.RoundPct(float64(count) / float64(len(orders)) * 100),
		})
	}
	return summary, nil
}

type PeriodMetrics struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Orders        int             `json:"orders"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

type PeriodChange struct {
	RevenuePercentage float64 `json:"revenue_percentage"`
	OrdersPercentage  float64 `json:"orders_percentage"`
	Trend             string  `json:"trend"` // up, down, stable
}

type ComparisonPair struct {
	Current  PeriodMetrics `json:"current"`
	Previous PeriodMetrics `json:"previous"`
	Change   PeriodChange  `json:"change"`
}

type PeriodComparisonResult struct {
	Daily   ComparisonPair `json:"daily"`
	Weekly  ComparisonPair `json:"weekly"`
	Monthly ComparisonPair `json:"monthly"`
}

// PeriodComparison compares today vs yesterday, this calendar week vs last
// and this calendar month vs last. Weeks start on Sunday, all boundaries in
// UTC. A zero previous period yields 0% change and a stable trend.
func (as *AnalyticsService) PeriodComparison() (*PeriodComparisonResult, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)
	yesterday := today.AddDate(0, 0, -1)
	thisWeekStart := today.AddDate(0, 0, -int(today.Weekday()))
	lastWeekStart := thisWeekStart.AddDate(0, 0, -7)
	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	daily, err := as.comparePeriods(today, tomorrow, yesterday, today)
	if err != nil {
		return nil, err
	}
	weekly, err := as.comparePeriods(thisWeekStart, tomorrow, lastWeekStart, thisWeekStart)
	if err != nil {
		return nil, err
	}
	monthly, err := as.comparePeriods(thisMonthStart, tomorrow, lastMonthStart, thisMonthStart)
	if err != nil {
		return nil, err
	}

	return &PeriodComparisonResult{Daily: *daily, Weekly: *weekly, Monthly: *monthly}, nil
}

// comparePeriods works on half-open [start, end) windows so adjacent
// periods never double-count a boundary instant.
func (as *AnalyticsService) comparePeriods(curStart, curEnd, prevStart, prevEnd time.Time) (*ComparisonPair, error) {
	current, err := as.periodMetrics(curStart, curEnd)
	if err != nil {
		return nil, err
	}
	previous, err := as.periodMetrics(prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	change := PeriodChange{Trend: "stable"}
	if previous.Revenue.IsPositive() {
		pct := current.Revenue.Sub(previous.Revenue).
			Div(previous.Revenue).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		change.RevenuePercentage, _ = pct.Float64()
	}
	if previous.Orders > 0 {
		change.OrdersPercentage = utils.RoundPct(float64(current.Orders-previous.Orders) / float64(previous.Orders) * 100)
	}
	switch {
	case change.RevenuePercentage > 0:
		change.Trend = "up"
	case change.RevenuePercentage < 0:
		change.Trend = "down"
	}

	return &ComparisonPair{Current: *current, Previous: *previous, Change: change}, nil
}

func (as *AnalyticsService) periodMetrics(start, end time.Time) (*PeriodMetrics, error) {
	var orders []models.Order
	err := as.DB.
		Where("created_at >= ? AND created_at < ?", start, end).
		Find(&orders).Error
	if err != nil {
		return nil, utils.Storagef("query orders", err)
	}

	metrics := &PeriodMetrics{
		Revenue:       decimal.Zero,
		Orders:        len(orders),
		AverageTicket: decimal.Zero,
	}
	revenue := sumTotals(orders)
	metrics.Revenue = utils.Round2(revenue)
	if len(orders) > 0 {
		metrics.AverageTicket = utils.Round2(revenue.Div(decimal.NewFromInt(int64(len(orders)))))
	}
	return metrics, nil
}

// RevenueByLocation sums in-range revenue per table location label. Orders
// on tables without a label fall into the "unspecified" bucket.
func (as *AnalyticsService) RevenueByLocation(r DateRange) (map[string]decimal.Decimal, error) {
	orders, err := as.ordersInRange(r, false)
	if err != nil {
		return nil, err
	}

	var tables []models.Table
	if err := as.DB.Find(&tables).Error; err != nil {
		return nil, utils.Storagef("query tables", err)
	}
	locations := make(map[uint]string, len(tables))
	for _, t := range tables {
		locations[t.ID] = t.Location
	}

	sums := make(map[string]decimal.Decimal)
	for _, o := range orders {
		location := locations[o.TableID]
		if location == "" {
			location = unspecifiedLocation
		}
		current, ok := sums[location]
		if !ok {
			current = decimal.Zero
		}
		sums[location] = current.Add(o.TotalAmount)
	}
	for location, total := range sums {
		sums[location] = utils.Round2(total)
	}
	return sums, nil
}

type TableAnalytics struct {
	TableID       uint            `json:"table_id"`
	TableNumber   int             `json:"table_number"`
	Location      string          `json:"location,omitempty"`
	TotalOrders   int             `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	TopProducts   []string        `json:"top_products"`
	LastOrderDate time.Time       `json:"last_order_date"`
}

// TableAnalytics aggregates in-range orders per table: revenue, average
// ticket, the three best-selling products and the most recent order.
// Tables with no orders in range are omitted; results sort by revenue.
func (as *AnalyticsService) TableAnalytics(r DateRange) ([]TableAnalytics, error) {
	orders, err := as.ordersInRange(r, true)
	if err != nil {
		return nil, err
	}

	byTable := make(map[uint][]models.Order)
	for _, o := range orders {
		byTable[o.TableID] = append(byTable[o.TableID], o)
	}

	result := make([]TableAnalytics, 0, len(byTable))
	for tableID, tableOrders := range byTable {
		var table models.Table
		if err := as.DB.First(&table, tableID).Error; err != nil {
			continue
		}

		revenue := sumTotals(tableOrders)
		entry := TableAnalytics{
			TableID:       tableID,
			TableNumber:   table.TableNumber,
			Location:      table.Location,
			TotalOrders:   len(tableOrders),
			TotalRevenue:  utils.Round2(revenue),
			AverageTicket: utils.Round2(revenue.Div(decimal.NewFromInt(int64(len(tableOrders))))),
			TopProducts:   topProducts(tableOrders, 3),
		}
		for _, o := range tableOrders {
			if o.CreatedAt.After(entry.LastOrderDate) {
				entry.LastOrderDate = o.CreatedAt
			}
		}
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalRevenue.GreaterThan(result[j].TotalRevenue)
	})
	return result, nil
}

func topProducts(orders []models.Order, limit int) []string {
	quantities := make(map[string]int)
	names := make([]string, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if _, ok := quantities[item.ProductName]; !ok {
				names = append(names, item.ProductName)
			}
			quantities[item.ProductName] += item.Quantity
		}
	}
	sort.SliceStable(names, func(i, j int) bool {
		return quantities[names[i]] > quantities[names[j]]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}
