package repository

import (
	"context"
	"errors"
	"time"

	"company-service/internal/model"
	"company-service/prometheus"

	"gorm.io/gorm"
)

type companyRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewCompanyRepository returns a CompanyRepository backed by the given
// database handle. Every call runs under the configured query timeout.
func NewCompanyRepository(db *gorm.DB, timeout time.Duration) CompanyRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &companyRepository{db: db, timeout: timeout}
}

func (r *companyRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// translate maps gorm errors to the repository error set.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("insert")(time.Now())

	return translate(r.db.WithContext(ctx).Create(company).Error)
}

func (r *companyRepository) GetByID(ctx context.Context, id uint) (*model.Company, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *companyRepository) GetByCode(ctx context.Context, code string) (*model.Company, error) {
	return r.getOne(ctx, "company_code = ?", code)
}

func (r *companyRepository) GetByEmail(ctx context.Context, email string) (*model.Company, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *companyRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Company, error) {
	return r.getOne(ctx, "email = ? OR company_code = ?", identifier, identifier)
}

func (r *companyRepository) GetByContactNumber(ctx context.Context, mobile string) (*model.Company, error) {
	return r.getOne(ctx, "contact_number = ?", mobile)
}

func (r *companyRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.Company, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var company model.Company
	if err := r.db.WithContext(ctx).Where(query, args...).First(&company).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

func (r *companyRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "company_code = ?", code)
}

func (r *companyRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *companyRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Company{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (r *companyRepository) List(ctx context.Context) ([]model.Company, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var companies []model.Company
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&companies).Error; err != nil {
		return nil, translate(err)
	}
	return companies, nil
}

func (r *companyRepository) Search(ctx context.Context, filter SearchFilter) ([]model.Company, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := r.db.WithContext(ctx).Model(&model.Company{})

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where(
			"company_name ILIKE ? OR company_code ILIKE ? OR email ILIKE ? OR role ILIKE ?",
			like, like, like, like,
		)
	}
	if filter.City != "" {
		query = query.Where("city ILIKE ?", "%"+filter.City+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var companies []model.Company
	err := query.
		Order("created_at desc").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&companies).Error
	if err != nil {
		return nil, 0, translate(err)
	}

	return companies, total, nil
}

func (r *companyRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := r.db.WithContext(ctx).Model(&model.Company{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *companyRepository) UpdatePassword(ctx context.Context, email, hash string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("update")(time.Now())

	result := r.db.WithContext(ctx).Model(&model.Company{}).Where("email = ?", email).Update("password", hash)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *companyRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Company{}).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}
