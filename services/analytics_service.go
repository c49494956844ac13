package services

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/models"
	"github.com/ywy929/assay-dashboard-backend/utils"
)

var ErrInvalidTimeframe = errors.New("invalid timeframe: use 'today', 'week', 'month', or 'year'")

type AnalyticsService struct{ db *gorm.DB }

func NewAnalyticsService(db *gorm.DB) *AnalyticsService { return &AnalyticsService{db: db} }

type DateRange struct {
	Oldest string `json:"oldest"`
	Newest string `json:"newest"`
}

type DashboardMetrics struct {
	Range struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"range"`

	TotalAssays       int64   `json:"total_assays"`
	Completed         int64   `json:"completed"`
	Rejected          int64   `json:"rejected"`
	Redo              int64   `json:"redo"`
	BelowThreshold    int64   `json:"below_threshold"`
	Ready             int64   `json:"ready"`
	TotalSampleWeight float64 `json:"total_sample_weight"`
	AvgFineness       float64 `json:"avg_fineness"`
}

// scoped applies the customer visibility rules; staff see everything.
func (s *AnalyticsService) scoped(user *models.User) *gorm.DB {
	q := s.db.Model(&models.AssayResult{}).Where("final_result <> ?", 0)
	if user.Role == "customer" {
		q = q.Where("customer = ? AND final_result <> ?", user.ID, models.FinalResultRedo)
	}
	return q
}

// AvailableDateRange returns the oldest and newest assay dates visible to
// the user, today when there is no data.
func (s *AnalyticsService) AvailableDateRange(user *models.User) (*DateRange, error) {
	var bounds struct {
		Oldest *time.Time
		Newest *time.Time
	}
	if err := s.scoped(user).
		Select("MIN(created) AS oldest, MAX(created) AS newest").
		Scan(&bounds).Error; err != nil {
		return nil, err
	}

	if bounds.Oldest == nil || bounds.Newest == nil {
		today := time.Now().Format("2006-01-02")
		return &DateRange{Oldest: today, Newest: today}, nil
	}
	return &DateRange{
		Oldest: bounds.Oldest.Format("2006-01-02"),
		Newest: bounds.Newest.Format("2006-01-02"),
	}, nil
}

// Dashboard aggregates status counts and weight totals for one period.
func (s *AnalyticsService) Dashboard(user *models.User, period string, offset int) (*DashboardMetrics, error) {
	from, to, err := utils.PeriodRange(period, offset, time.Now())
	if err != nil {
		return nil, err
	}

	metrics := &DashboardMetrics{}
	metrics.Range.From = from.Format("2006-01-02")
	metrics.Range.To = to.Format("2006-01-02")

	inRange := func() *gorm.DB {
		return s.scoped(user).Where("created >= ? AND created < ?", from, to)
	}

	if err := inRange().Count(&metrics.TotalAssays).Error; err != nil {
		return nil, err
	}
	if err := inRange().Where("final_result > 0").Count(&metrics.Completed).Error; err != nil {
		return nil, err
	}
	if err := inRange().Where("final_result = ?", models.FinalResultRejected).Count(&metrics.Rejected).Error; err != nil {
		return nil, err
	}
	if err := inRange().Where("final_result = ?", models.FinalResultRedo).Count(&metrics.Redo).Error; err != nil {
		return nil, err
	}
	if err := inRange().Where("final_result = ?", models.FinalResultLow).Count(&metrics.BelowThreshold).Error; err != nil {
		return nil, err
	}
	if err := inRange().Where("ready = ?", true).Count(&metrics.Ready).Error; err != nil {
		return nil, err
	}

	var totals struct {
		Weight   *float64
		Fineness *float64
	}
	if err := inRange().Where("final_result > 0").
		Select("SUM(sample_weight) AS weight, AVG(final_result) AS fineness").
		Scan(&totals).Error; err != nil {
		return nil, err
	}
	if totals.Weight != nil {
		metrics.TotalSampleWeight = *totals.Weight
	}
	if totals.Fineness != nil {
		metrics.AvgFineness = *totals.Fineness
	}

	return metrics, nil
}

type EfficiencyMetrics struct {
	AverageProcessingTime float64 `json:"average_processing_time"`
	AverageSampleWeight   float64 `json:"average_sample_weight"`
	AverageReturnWeight   float64 `json:"average_return_weight"`
	AverageLossPercentage float64 `json:"average_loss_percentage"`
	TotalProcessed        int     `json:"total_processed"`
}

// Efficiency averages processing time (created to return date, in hours)
// and weights over one period. Rows missing a field are excluded from
// that field's average only.
func (s *AnalyticsService) Efficiency(user *models.User, period string, offset int) (*EfficiencyMetrics, error) {
	from, to, err := utils.PeriodRange(period, offset, time.Now())
	if err != nil {
		return nil, err
	}

	var results []models.AssayResult
	if err := s.scoped(user).
		Where("created >= ? AND created < ?", from, to).
		Find(&results).Error; err != nil {
		return nil, err
	}

	metrics := &EfficiencyMetrics{TotalProcessed: len(results)}
	if len(results) == 0 {
		return metrics, nil
	}

	var hours, sample, ret, loss float64
	var hoursN, sampleN, retN int
	for _, r := range results {
		if !r.ReturnDate.IsZero() && !r.Created.IsZero() {
			hours += r.ReturnDate.Sub(r.Created).Hours()
			hoursN++
		}
		if r.SampleWeight != 0 {
			sample += r.SampleWeight
			sampleN++
		}
		if r.SampleReturn != 0 {
			ret += r.SampleReturn
			retN++
		}
		loss += r.Loss
	}
	if hoursN > 0 {
		metrics.AverageProcessingTime = hours / float64(hoursN)
	}
	if sampleN > 0 {
		metrics.AverageSampleWeight = sample / float64(sampleN)
	}
	if retN > 0 {
		metrics.AverageReturnWeight = ret / float64(retN)
	}
	metrics.AverageLossPercentage = loss / float64(len(results))

	return metrics, nil
}

type TrendPoint struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

func (s *AnalyticsService) countBetween(user *models.User, from, to time.Time) (int64, error) {
	var count int64
	err := s.scoped(user).Where("created >= ? AND created < ?", from, to).Count(&count).Error
	return count, err
}

// Trend buckets assay counts across a period: days for week and month,
// months for year.
func (s *AnalyticsService) Trend(user *models.User, period string, offset int) ([]TrendPoint, error) {
	from, to, err := utils.PeriodRange(period, offset, time.Now())
	if err != nil {
		return nil, err
	}

	points := []TrendPoint{}
	if period == "year" {
		for m := from; m.Before(to); m = m.AddDate(0, 1, 0) {
			count, err := s.countBetween(user, m, m.AddDate(0, 1, 0))
			if err != nil {
				return nil, err
			}
			points = append(points, TrendPoint{Label: m.Format("Jan"), Value: count})
		}
		return points, nil
	}

	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		count, err := s.countBetween(user, d, d.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		label := d.Format("Mon")
		if period == "month" {
			label = strconv.Itoa(d.Day())
		}
		points = append(points, TrendPoint{Label: label, Value: count})
	}
	return points, nil
}

type TopCustomer struct {
	CustomerName    string  `json:"customer_name"`
	TotalAssays     int64   `json:"total_assays"`
	TotalWeight     float64 `json:"total_weight"`
	AverageFineness float64 `json:"average_fineness"`
}

// TopCustomers ranks customers by completed assay count.
func (s *AnalyticsService) TopCustomers(limit int) ([]TopCustomer, error) {
	var rows []struct {
		CustomerName    string
		TotalAssays     int64
		TotalWeight     *float64
		AverageFineness *float64
	}
	err := s.db.Model(&models.User{}).
		Select(`"user".name AS customer_name,
			COUNT(assayresult.id) AS total_assays,
			SUM(assayresult.sample_weight) AS total_weight,
			AVG(assayresult.final_result) AS average_fineness`).
		Joins(`JOIN assayresult ON "user".id = assayresult.customer`).
		Where("assayresult.final_result > 0").
		Group(`"user".id, "user".name`).
		Order("COUNT(assayresult.id) DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	top := make([]TopCustomer, 0, len(rows))
	for _, r := range rows {
		c := TopCustomer{CustomerName: r.CustomerName, TotalAssays: r.TotalAssays}
		if r.TotalWeight != nil {
			c.TotalWeight = *r.TotalWeight
		}
		if r.AverageFineness != nil {
			c.AverageFineness = *r.AverageFineness
		}
		top = append(top, c)
	}
	return top, nil
}

type DailyTrend struct {
	Date            string  `json:"date"`
	TotalAssays     int64   `json:"total_assays"`
	TotalWeight     float64 `json:"total_weight"`
	AverageFineness float64 `json:"average_fineness"`
}

type trendTotals struct {
	Total     int64
	Weight    *float64
	Fineness  *float64
	Customers int64
}

func (s *AnalyticsService) trendTotalsBetween(user *models.User, from, to time.Time) (*trendTotals, error) {
	var totals trendTotals
	err := s.scoped(user).
		Where("created >= ? AND created < ?", from, to).
		Select(`COUNT(id) AS total,
			SUM(sample_weight) AS weight,
			AVG(final_result) AS fineness,
			COUNT(DISTINCT customer) AS customers`).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// DailyTrends aggregates per calendar day over the trailing window. Days
// without assays are omitted.
func (s *AnalyticsService) DailyTrends(user *models.User, days int) ([]DailyTrend, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)
	day := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())

	trends := []DailyTrend{}
	for ; !day.After(now); day = day.AddDate(0, 0, 1) {
		from := day
		if from.Before(cutoff) {
			from = cutoff
		}
		totals, err := s.trendTotalsBetween(user, from, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		if totals.Total == 0 {
			continue
		}
		trend := DailyTrend{Date: day.Format("2006-01-02"), TotalAssays: totals.Total}
		if totals.Weight != nil {
			trend.TotalWeight = *totals.Weight
		}
		if totals.Fineness != nil {
			trend.AverageFineness = *totals.Fineness
		}
		trends = append(trends, trend)
	}
	return trends, nil
}

type MonthlyTrend struct {
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	TotalAssays     int64   `json:"total_assays"`
	TotalWeight     float64 `json:"total_weight"`
	TotalCustomers  int64   `json:"total_customers"`
	AverageFineness float64 `json:"average_fineness"`
}

// MonthlyTrends aggregates per calendar month over the trailing window,
// 30 days per month. Months without assays are omitted; customers always
// see a customer count of one.
func (s *AnalyticsService) MonthlyTrends(user *models.User, months int) ([]MonthlyTrend, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -months*30)
	month := time.Date(cutoff.Year(), cutoff.Month(), 1, 0, 0, 0, 0, cutoff.Location())

	trends := []MonthlyTrend{}
	for ; !month.After(now); month = month.AddDate(0, 1, 0) {
		from := month
		if from.Before(cutoff) {
			from = cutoff
		}
		totals, err := s.trendTotalsBetween(user, from, month.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		if totals.Total == 0 {
			continue
		}
		trend := MonthlyTrend{
			Year:           month.Year(),
			Month:          int(month.Month()),
			TotalAssays:    totals.Total,
			TotalCustomers: totals.Customers,
		}
		if user.Role == "customer" {
			trend.TotalCustomers = 1
		}
		if totals.Weight != nil {
			trend.TotalWeight = *totals.Weight
		}
		if totals.Fineness != nil {
			trend.AverageFineness = *totals.Fineness
		}
		trends = append(trends, trend)
	}
	return trends, nil
}

// AreaBreakdown is the billing/coupon matrix for one collection area.
type AreaBreakdown struct {
	BillingCoupon     int `json:"billing_coupon"`
	BillingNoCoupon   int `json:"billing_no_coupon"`
	NoBillingCoupon   int `json:"no_billing_coupon"`
	NoBillingNoCoupon int `json:"no_billing_no_coupon"`
	BillingTotal      int `json:"billing_total"`
	NoBillingTotal    int `json:"no_billing_total"`
	CouponTotal       int `json:"coupon_total"`
	NoCouponTotal     int `json:"no_coupon_total"`
	Total             int `json:"total"`
}

type DailyReport struct {
	Date         string         `json:"date"`
	TodayTotal   int            `json:"today_total"`
	MonthTotal   int            `json:"month_total"`
	BWData       *AreaBreakdown `json:"bw_data"`
	PGData       *AreaBreakdown `json:"pg_data"`
	BWMonthTotal int            `json:"bw_month_total"`
	PGMonthTotal int            `json:"pg_month_total"`
}

func (s *AnalyticsService) areaBreakdown(area string, from, to time.Time) (*AreaBreakdown, error) {
	var rows []struct {
		Billing bool
		Coupon  bool
	}
	err := s.db.Model(&models.AssayResult{}).
		Select(`"user".billing, "user".coupon`).
		Joins(`JOIN "user" ON "user".id = assayresult.customer`).
		Where("assayresult.created >= ? AND assayresult.created < ?", from, to).
		Where(`"user".area = ?`, area).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	b := &AreaBreakdown{Total: len(rows)}
	for _, r := range rows {
		switch {
		case r.Billing && r.Coupon:
			b.BillingCoupon++
		case r.Billing:
			b.BillingNoCoupon++
		case r.Coupon:
			b.NoBillingCoupon++
		default:
			b.NoBillingNoCoupon++
		}
	}
	b.BillingTotal = b.BillingCoupon + b.BillingNoCoupon
	b.NoBillingTotal = b.NoBillingCoupon + b.NoBillingNoCoupon
	b.CouponTotal = b.BillingCoupon + b.NoBillingCoupon
	b.NoCouponTotal = b.BillingNoCoupon + b.NoBillingNoCoupon
	return b, nil
}

// Report breaks assays down by collection area and billing mode for one
// timeframe. The month totals always reference the current calendar
// month regardless of timeframe.
func (s *AnalyticsService) Report(timeframe string, offset int) (*DailyReport, error) {
	now := time.Now()

	var periodStart, periodEnd time.Time
	if timeframe == "today" {
		periodStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, offset)
		periodEnd = periodStart.AddDate(0, 0, 1)
	} else {
		var err error
		periodStart, periodEnd, err = utils.PeriodRange(timeframe, offset, now)
		if err != nil {
			return nil, ErrInvalidTimeframe
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	bwPeriod, err := s.areaBreakdown("BW", periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	pgPeriod, err := s.areaBreakdown("PG", periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	bwMonth, err := s.areaBreakdown("BW", monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	pgMonth, err := s.areaBreakdown("PG", monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	return &DailyReport{
		Date:         periodStart.Format("2006-01-02"),
		TodayTotal:   bwPeriod.Total + pgPeriod.Total,
		MonthTotal:   bwMonth.Total + pgMonth.Total,
		BWData:       bwPeriod,
		PGData:       pgPeriod,
		BWMonthTotal: bwMonth.Total,
		PGMonthTotal: pgMonth.Total,
	}, nil
}
