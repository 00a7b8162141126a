package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rawan0Albalushi/welfare-fund-backend-sub000/pkg/types"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatisticType string

const (
	// Daily counts and raised amounts
	StatisticTypeDailyDonationCount StatisticType = "daily_donation_count"
	StatisticTypeDailyRaised        StatisticType = "daily_raised"
	StatisticTypeTotalRaised        StatisticType = "total_raised"

	// Donor activity
	StatisticTypeDailyDonorCount StatisticType = "daily_donor_count"

	// Breakdown by donation type (quick vs gift)
	StatisticTypeTypeBreakdown StatisticType = "donation_type_breakdown"
)

// Filter fields supported by certain statistic types
type DonationStatisticFilterType string

const (
	DonationStatisticFilterTypeType       DonationStatisticFilterType = "type"
	DonationStatisticFilterTypeProgramID  DonationStatisticFilterType = "program_id"
	DonationStatisticFilterTypeCampaignID DonationStatisticFilterType = "campaign_id"
)

var filterTypes = []DonationStatisticFilterType{
	DonationStatisticFilterTypeType,
	DonationStatisticFilterTypeProgramID,
	DonationStatisticFilterTypeCampaignID,
}

var validFilters = map[DonationStatisticFilterType][]StatisticType{
	DonationStatisticFilterTypeType:       {StatisticTypeDailyDonationCount, StatisticTypeDailyRaised},
	DonationStatisticFilterTypeProgramID:  {StatisticTypeDailyDonationCount, StatisticTypeDailyRaised, StatisticTypeDailyDonorCount},
	DonationStatisticFilterTypeCampaignID: {StatisticTypeDailyDonationCount, StatisticTypeDailyRaised, StatisticTypeDailyDonorCount},
}

type DonationStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type DonationStatisticRequest struct {
	Filters   []*types.CommonFilter        `json:"filters"`
	DataItems []*DonationStatisticDataItem `json:"data_items"`
}

// GetFilters keeps only the filters applicable to statisticType.
func (f *DonationStatisticRequest) GetFilters(statisticType StatisticType) *DonationStatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result DonationStatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[DonationStatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause from the applicable filters.
func (f *DonationStatisticRequest) Build(builder clause.Builder) {
	if len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		filter.Build(builder)
	}
}

type DonationStatisticResponseDataItem struct {
	Date  string  `json:"date"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

type DonationStatisticResponse struct {
	DataItems map[StatisticType][]DonationStatisticResponseDataItem `json:"data_items"`
}

// Service provides donation statistics for the admin dashboard. Raised
// metrics count settled amounts only; pending and failed donations
// contribute to counts, never to money.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyDonationCount(ctx context.Context, request *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("donations").
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyDonationCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRaised(ctx context.Context, request *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("donations").
		Select("TO_CHAR(paid_at, 'YYYY-MM-DD') as date, sum(paid_amount) as value").
		Where("status = ?", types.DonationStatusPaid).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyRaised)}}).
		Group("TO_CHAR(paid_at, 'YYYY-MM-DD')").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalRaised(ctx context.Context, _ *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(paid_at)) as min_date, MAX(DATE(paid_at)) as max_date
    FROM donations WHERE status = 'paid'
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
raised_date AS (
    SELECT TO_CHAR(d.date, 'YYYY-MM-DD') as date, COALESCE(SUM(t.paid_amount), 0) as value
    FROM distinct_dates d
    LEFT JOIN donations t
      ON TO_CHAR(t.paid_at, 'YYYY-MM-DD') = TO_CHAR(d.date, 'YYYY-MM-DD')
     AND t.status = 'paid'
    GROUP BY d.date
)
SELECT d.date as date, SUM(s.value) as value
FROM raised_date d
LEFT JOIN raised_date s ON s.date <= d.date
GROUP BY d.date
ORDER BY d.date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyDonorCount(ctx context.Context, request *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("donations").
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(distinct user_id) as value").
		Where("user_id IS NOT NULL").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyDonorCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTypeBreakdown(ctx context.Context, _ *DonationStatisticRequest) ([]DonationStatisticResponseDataItem, error) {
	var results []DonationStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("donations").
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, type AS label, count(*) as value").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("type").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDonationStatistic(ctx context.Context, request *DonationStatisticRequest, dataItem *DonationStatisticDataItem) ([]DonationStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyDonationCount:
		return s.getDailyDonationCount(ctx, request)
	case StatisticTypeDailyRaised:
		return s.getDailyRaised(ctx, request)
	case StatisticTypeTotalRaised:
		return s.getTotalRaised(ctx, request)
	case StatisticTypeDailyDonorCount:
		return s.getDailyDonorCount(ctx, request)
	case StatisticTypeTypeBreakdown:
		return s.getTypeBreakdown(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetDonationStatistic resolves the requested data items concurrently;
// the first failing item fails the whole request.
func (s *Service) GetDonationStatistic(ctx context.Context, request *DonationStatisticRequest) (*DonationStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []DonationStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *DonationStatisticDataItem) {
			defer wg.Done()
			// an inapplicable filter means no data, not an error
			for _, filter := range request.Filters {
				ft := DonationStatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []DonationStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getDonationStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []DonationStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]DonationStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &DonationStatisticResponse{DataItems: results}, nil
}
