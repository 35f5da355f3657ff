package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// productSearchColumns 关键字搜索覆盖的列
var productSearchColumns = []string{"name", "slug", "description", "subcategory"}

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildLikeCondition 构建多列 OR LIKE 条件，并返回参数数量。
func buildLikeCondition(db *gorm.DB, columns []string) (string, int) {
	return buildLikeConditionByDialect(dbDialectName(db), columns)
}

func buildLikeConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns))
	operator := likeOperatorByDialect(dialect)
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`%s %s ? ESCAPE '\'`, trimmed, operator))
	}
	return strings.Join(parts, " OR "), len(parts)
}

// likeOperatorByDialect postgres 使用 ILIKE
func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// likePattern 转义通配符并包裹为包含匹配
func likePattern(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(keyword)) + "%"
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
