package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aerocomidas/restaurant-pos/cache"
	"github.com/aerocomidas/restaurant-pos/services"
	"github.com/aerocomidas/restaurant-pos/utils"
)

type AnalyticsController struct {
	Analytics *services.AnalyticsService
	Cache     *cache.Client
}

func NewAnalyticsController(analytics *services.AnalyticsService, cacheClient *cache.Client) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics, Cache: cacheClient}
}

// parseDateRange reads the optional start/end query params. Values may be
// RFC 3339 timestamps or bare dates; a bare end date is widened to the end
// of that day so the range stays inclusive.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(raw string, endOfDay bool) (*time.Time, error) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, utils.Validationf("invalid date %q, want RFC 3339 or YYYY-MM-DD", raw)
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}

	var start, end *time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := parse(raw, false)
		if err != nil {
			return nil, nil, err
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := parse(raw, true)
		if err != nil {
			return nil, nil, err
		}
		end = t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, utils.Validationf("end date precedes start date")
	}
	return start, end, nil
}

func rangeCacheKey(prefix string, r services.DateRange) string {
	key := prefix
	if r.Start != nil {
		key += ":" + r.Start.Format(time.RFC3339)
	}
	if r.End != nil {
		key += ":" + r.End.Format(time.RFC3339)
	}
	return key
}

// GetAverageTicket -> mean order value over the range
func (ac *AnalyticsController) GetAverageTicket(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	r := services.DateRange{Start: start, End: end}

	var result services.AverageTicketResult
	key := rangeCacheKey("average-ticket", r)
	if ac.Cache.Get(c.Request.Context(), key, &result) {
		utils.RespondJSON(c, http.StatusOK, "Average ticket", result)
		return
	}

	computed, err := ac.Analytics.AverageTicket(r)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	ac.Cache.Set(c.Request.Context(), key, computed)
	utils.RespondJSON(c, http.StatusOK, "Average ticket", computed)
}

// GetTopSellingItems -> best sellers ranked by quantity
func (ac *AnalyticsController) GetTopSellingItems(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	r := services.DateRange{Start: start, End: end}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.RespondAppError(c, utils.Validationf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	var result []services.TopSellingItem
	key := rangeCacheKey("top-items:"+strconv.Itoa(limit), r)
	if ac.Cache.Get(c.Request.Context(), key, &result) {
		utils.RespondJSON(c, http.StatusOK, "Top selling items", result)
		return
	}

	computed, err := ac.Analytics.TopSellingItems(r, limit)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	ac.Cache.Set(c.Request.Context(), key, computed)
	utils.RespondJSON(c, http.StatusOK, "Top selling items", computed)
}

// GetSalesByHour -> hourly distribution across the range
func (ac *AnalyticsController) GetSalesByHour(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	r := services.DateRange{Start: start, End: end}

	var result services.SalesByHourResult
	key := rangeCacheKey("sales-by-hour", r)
	if ac.Cache.Get(c.Request.Context(), key, &result) {
		utils.RespondJSON(c, http.StatusOK, "Sales by hour", result)
		return
	}

	computed, err := ac.Analytics.SalesByHour(r)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	ac.Cache.Set(c.Request.Context(), key, computed)
	utils.RespondJSON(c, http.StatusOK, "Sales by hour", computed)
}

// GetDashboard -> headline figures, defaulting to the last 30 days
func (ac *AnalyticsController) GetDashboard(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	summary, err := ac.Analytics.Dashboard(services.DateRange{Start: start, End: end})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard summary", summary)
}

// GetPeriodComparison -> today/this week/this month vs the previous period
func (ac *AnalyticsController) GetPeriodComparison(c *gin.Context) {
	result, err := ac.Analytics.PeriodComparison()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Period comparison", result)
}

// GetRevenueByLocation -> revenue grouped by table location
func (ac *AnalyticsController) GetRevenueByLocation(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	result, err := ac.Analytics.RevenueByLocation(services.DateRange{Start: start, End: end})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Revenue by location", result)
}

// GetTableAnalytics -> per-table performance over the range
func (ac *AnalyticsController) GetTableAnalytics(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	result, err := ac.Analytics.TableAnalytics(services.DateRange{Start: start, End: end})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table analytics", result)
}
