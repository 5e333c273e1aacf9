package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

var _ ports.Backend = (*Backend)(nil)

// Backend persists parts, products and product_parts in PostgreSQL using GORM.
// Schema is owned by platform/migrations.
type Backend struct {
	db *gorm.DB
}

// NewBackend wires a PostgreSQL-backed inventory backend. Caller manages DB lifecycle.
func NewBackend(db *gorm.DB) *Backend {
	return &Backend{db: db}
}

type partRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false;column:id"`
	Name        string          `gorm:"column:name;size:255;index"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Stock       int             `gorm:"column:stock"`
	Min         int             `gorm:"column:min_stock"`
	Max         int             `gorm:"column:max_stock"`
	Kind        string          `gorm:"column:kind;type:varchar(16)"`
	MachineID   *int64          `gorm:"column:machine_id"`
	CompanyName *string         `gorm:"column:company_name;size:255"`
	CreatedAt   time.Time       `gorm:"column:created_at;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (partRecord) TableName() string { return "parts" }

type productRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement:false;column:id"`
	Name      string          `gorm:"column:name;size:255;index"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2)"`
	Stock     int             `gorm:"column:stock"`
	Min       int             `gorm:"column:min_stock"`
	Max       int             `gorm:"column:max_stock"`
	CreatedAt time.Time       `gorm:"column:created_at;index"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// associationRow is one product with its part ids aggregated in position order.
type associationRow struct {
	ProductID int64         `gorm:"column:product_id"`
	PartIDs   pq.Int64Array `gorm:"column:part_ids"`
}

func (b *Backend) LoadAllParts(ctx context.Context) ([]domain.Part, error) {
	if err := b.ensureDB(); err != nil {
		return nil, err
	}
	var records []partRecord
	if err := b.db.WithContext(ctx).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	parts := make([]domain.Part, 0, len(records))
	for i := range records {
		parts = append(parts, records[i].toDomain())
	}
	return parts, nil
}

func (b *Backend) LoadAllProducts(ctx context.Context) ([]domain.Product, error) {
	if err := b.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := b.db.WithContext(ctx).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	var rows []associationRow
	if err := b.db.WithContext(ctx).
		Table("product_parts").
		Select("product_id, array_agg(part_id ORDER BY position) AS part_ids").
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	associations := make(map[int64][]int64, len(rows))
	for _, row := range rows {
		associations[row.ProductID] = []int64(row.PartIDs)
	}
	products := make([]domain.Product, 0, len(records))
	for i := range records {
		product := records[i].toDomain()
		product.AssociatedPartIDs = associations[product.ID]
		products = append(products, product)
	}
	return products, nil
}

func (b *Backend) InsertPart(ctx context.Context, part domain.Part) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	record := toPartRecord(part)
	return b.db.WithContext(ctx).Create(&record).Error
}

func (b *Backend) InsertProduct(ctx context.Context, product domain.Product) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	record := toProductRecord(product)
	return b.db.WithContext(ctx).Create(&record).Error
}

func (b *Backend) UpdatePart(ctx context.Context, part domain.Part) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	record := toPartRecord(part)
	result := b.db.WithContext(ctx).Model(&partRecord{}).Where("id = ?", part.ID).Updates(map[string]any{
		"name":         record.Name,
		"price":        record.Price,
		"stock":        record.Stock,
		"min_stock":    record.Min,
		"max_stock":    record.Max,
		"kind":         record.Kind,
		"machine_id":   record.MachineID,
		"company_name": record.CompanyName,
		"updated_at":   gorm.Expr("NOW()"),
	})
	return rowsAffected(result, "part", part.ID)
}

func (b *Backend) UpdateProduct(ctx context.Context, product domain.Product) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	record := toProductRecord(product)
	result := b.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", product.ID).Updates(map[string]any{
		"name":       record.Name,
		"price":      record.Price,
		"stock":      record.Stock,
		"min_stock":  record.Min,
		"max_stock":  record.Max,
		"updated_at": gorm.Expr("NOW()"),
	})
	return rowsAffected(result, "product", product.ID)
}

func (b *Backend) DeletePart(ctx context.Context, id int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	return rowsAffected(b.db.WithContext(ctx).Delete(&partRecord{}, id), "part", id)
}

func (b *Backend) DeleteProduct(ctx context.Context, id int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	return rowsAffected(b.db.WithContext(ctx).Delete(&productRecord{}, id), "product", id)
}

// InsertAssociation appends at MAX(position)+1 in a single statement.
func (b *Backend) InsertAssociation(ctx context.Context, productID, partID int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Exec(
		`INSERT INTO product_parts (product_id, position, part_id)
		 SELECT ?, COALESCE(MAX(position) + 1, 0), ? FROM product_parts WHERE product_id = ?`,
		productID, partID, productID,
	).Error
}

func (b *Backend) DeleteAssociationsFor(ctx context.Context, productID int64) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Exec(`DELETE FROM product_parts WHERE product_id = ?`, productID).Error
}

// Atomic runs fn inside a database transaction.
func (b *Backend) Atomic(ctx context.Context, fn func(tx ports.Backend) error) error {
	if err := b.ensureDB(); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Backend{db: tx})
	})
}

func (b *Backend) ensureDB() error {
	if b == nil || b.db == nil {
		return errors.New("postgres inventory backend not configured")
	}
	return nil
}

func rowsAffected(result *gorm.DB, kind string, id int64) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %d", ports.ErrNotFound, kind, id)
	}
	return nil
}

func toPartRecord(part domain.Part) partRecord {
	rec := partRecord{
		ID:    part.ID,
		Name:  part.Name,
		Price: part.Price,
		Stock: part.Stock,
		Min:   part.Min,
		Max:   part.Max,
		Kind:  string(part.Kind),
	}
	switch part.Kind {
	case domain.KindInHouse:
		machineID := part.MachineID
		rec.MachineID = &machineID
	case domain.KindOutsourced:
		company := part.CompanyName
		rec.CompanyName = &company
	}
	return rec
}

func (r partRecord) toDomain() domain.Part {
	part := domain.Part{
		ID:     r.ID,
		Levels: domain.Levels{Name: r.Name, Price: r.Price, Stock: r.Stock, Min: r.Min, Max: r.Max},
		Kind:   domain.PartKind(r.Kind),
	}
	if r.MachineID != nil {
		part.MachineID = *r.MachineID
	}
	if r.CompanyName != nil {
		part.CompanyName = *r.CompanyName
	}
	return part
}

func toProductRecord(product domain.Product) productRecord {
	return productRecord{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Stock: product.Stock,
		Min:   product.Min,
		Max:   product.Max,
	}
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:     r.ID,
		Levels: domain.Levels{Name: r.Name, Price: r.Price, Stock: r.Stock, Min: r.Min, Max: r.Max},
	}
}
