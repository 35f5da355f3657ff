package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// catalogFile 商品目录文件
type catalogFile struct {
	Products []catalogProduct `yaml:"products"`
}

type catalogOption struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	AdditionalFee string `yaml:"additional_fee"`
}

type catalogOptionGroup struct {
	Type    string          `yaml:"type"`
	Options []catalogOption `yaml:"options"`
}

type catalogFAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type catalogProduct struct {
	Slug                  string               `yaml:"slug"`
	Name                  string               `yaml:"name"`
	Description           string               `yaml:"description"`
	Category              string               `yaml:"category"`
	Subcategory           string               `yaml:"subcategory"`
	Price                 string               `yaml:"price"`
	NewPrice              string               `yaml:"new_price"`
	Deposit               int                  `yaml:"deposit"`
	Caution               string               `yaml:"caution"`
	Stock                 int                  `yaml:"stock"`
	BaseDeliveryFees      string               `yaml:"base_delivery_fees"`
	InstallationFees      string               `yaml:"installation_fees"`
	OutOfStock            bool                 `yaml:"out_of_stock"`
	Images                []string             `yaml:"images"`
	Features              []string             `yaml:"features"`
	FAQ                   []catalogFAQ         `yaml:"faq"`
	Options               []catalogOptionGroup `yaml:"options"`
	PersonalizationFields []string             `yaml:"personalization_fields"`
}

func main() {
	var path string
	flag.StringVar(&path, "file", "etc/catalog.yml", "商品目录 YAML 文件")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	catalog, err := readCatalog(path)
	if err != nil {
		stdLog.Fatalf("Failed to read catalog: %v", err)
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, false, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(nil); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	repo := repository.NewProductRepository(models.DB)
	ctx := context.Background()
	for i := range catalog.Products {
		product, err := catalog.Products[i].toModel()
		if err != nil {
			stdLog.Fatalf("Invalid product %q: %v", catalog.Products[i].Slug, err)
		}
		if err := repo.UpsertBySlug(ctx, product); err != nil {
			stdLog.Fatalf("Failed to upsert product %q: %v", product.Slug, err)
		}
		logger.Infow("seed_product_upserted", "slug", product.Slug, "subcategory", product.Subcategory)
	}
	fmt.Printf("Seeded %d products from %s\n", len(catalog.Products), path)
}

func readCatalog(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	if len(catalog.Products) == 0 {
		return nil, fmt.Errorf("no products in %s", path)
	}
	return &catalog, nil
}

func (p catalogProduct) toModel() (*models.Product, error) {
	slug := strings.TrimSpace(p.Slug)
	if slug == "" || strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("slug and name are required")
	}
	if p.Deposit < 0 || p.Deposit > 100 {
		return nil, fmt.Errorf("deposit must be within 0-100")
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	caution, err := parseAmount(p.Caution)
	if err != nil {
		return nil, fmt.Errorf("caution: %w", err)
	}
	delivery, err := parseAmount(p.BaseDeliveryFees)
	if err != nil {
		return nil, fmt.Errorf("base_delivery_fees: %w", err)
	}
	newPrice, err := parseOptionalAmount(p.NewPrice)
	if err != nil {
		return nil, fmt.Errorf("new_price: %w", err)
	}
	installation, err := parseOptionalAmount(p.InstallationFees)
	if err != nil {
		return nil, fmt.Errorf("installation_fees: %w", err)
	}

	faq := make(models.FAQList, 0, len(p.FAQ))
	for _, item := range p.FAQ {
		faq = append(faq, models.FAQItem{Question: item.Question, Answer: item.Answer})
	}
	groups := make(models.OptionGroups, 0, len(p.Options))
	for _, group := range p.Options {
		options := make([]models.ProductOption, 0, len(group.Options))
		for _, option := range group.Options {
			fee, err := parseAmount(option.AdditionalFee)
			if err != nil {
				return nil, fmt.Errorf("option %s/%s: %w", group.Type, option.Name, err)
			}
			options = append(options, models.ProductOption{
				Name:          option.Name,
				Description:   option.Description,
				AdditionalFee: models.NewMoneyFromDecimal(fee),
			})
		}
		groups = append(groups, models.OptionGroup{OptionTypeName: group.Type, Options: options})
	}

	return &models.Product{
		Slug:                  slug,
		Name:                  strings.TrimSpace(p.Name),
		Description:           p.Description,
		Price:                 models.NewMoneyFromDecimal(price),
		NewPrice:              newPrice,
		Images:                models.StringArray(p.Images),
		Features:              models.StringArray(p.Features),
		FAQ:                   faq,
		Options:               groups,
		PersonalizationFields: models.StringArray(p.PersonalizationFields),
		Deposit:               p.Deposit,
		Caution:               models.NewMoneyFromDecimal(caution),
		Stock:                 p.Stock,
		BaseDeliveryFees:      models.NewMoneyFromDecimal(delivery),
		InstallationFees:      installation,
		IsOutOfStock:          p.OutOfStock,
		Category:              p.Category,
		Subcategory:           p.Subcategory,
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	amount, err := models.ParseMoney(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Decimal, nil
}

func parseOptionalAmount(raw string) (*models.Money, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	amount, err := parseAmount(raw)
	if err != nil {
		return nil, err
	}
	return models.MoneyPtr(amount), nil
}
