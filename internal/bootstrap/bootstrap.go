// Package bootstrap prepares a development database: it applies the schema
// and loads the demo fixtures. Production databases are managed by ops
// tooling and never pass through here.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

// EnsureSchema applies every DDL statement in dependency order. Statements
// are written with "if not exists" so reruns are harmless.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	for _, stmt := range sqlinline.Schema {
		if _, err := sql.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: apply %s: %w", marker(stmt), err)
		}
	}
	return nil
}

type seedUser struct {
	username  string
	password  string
	email     string
	firstName string
	lastName  string
	role      string
}

var demoUsers = []seedUser{
	{"admin", "admin123", "admin@bossai.com.vn", "Admin", "User", "ADMIN"},
	{"user", "user123", "user@bossai.com.vn", "Demo", "User", "USER"},
}

type seedConfig struct {
	category string
	value    string
	label    string
}

var demoCatalog = []seedConfig{
	{"tone", "professional", "Chuyên nghiệp"},
	{"tone", "friendly", "Thân thiện"},
	{"tone", "humorous", "Hài hước"},
	{"tone", "inspirational", "Truyền cảm hứng"},
	{"industry", "food-beverage", "Ẩm thực"},
	{"industry", "fashion", "Thời trang"},
	{"industry", "electronics", "Điện tử"},
	{"industry", "beauty", "Làm đẹp"},
	{"industry", "services", "Dịch vụ"},
	{"language", "vi", "Tiếng Việt"},
	{"language", "en", "English"},
	{"target-audience", "gen-z", "Gen Z"},
	{"target-audience", "families", "Gia đình"},
	{"target-audience", "office-workers", "Dân văn phòng"},
	{"target-audience", "small-business", "Chủ kinh doanh nhỏ"},
	{"content-type", "social-post", "Bài đăng mạng xã hội"},
	{"content-type", "product-description", "Mô tả sản phẩm"},
	{"content-type", "blog-article", "Bài viết blog"},
	{"content-type", "ad-copy", "Nội dung quảng cáo"},
}

// SeedDemo loads the development fixtures: the admin/user demo accounts,
// the baseline option catalogs and an inactive webhook agent documenting
// the expected row shape. Every statement is an upsert or conflict-ignore,
// so reseeding an existing database changes nothing.
func SeedDemo(ctx context.Context, sql infra.SQLExecutor, logger zerolog.Logger) error {
	for _, u := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("bootstrap: hash %s password: %w", u.username, err)
		}
		var id string
		err = sql.QueryRow(ctx, sqlinline.QSeedUser,
			u.username, u.email, string(hash), u.firstName, u.lastName, u.role,
		).Scan(&id)
		if infra.IsNoRows(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("bootstrap: seed user %s: %w", u.username, err)
		}
		logger.Info().Str("username", u.username).Str("role", u.role).Msg("seeded demo account")
	}

	for i, c := range demoCatalog {
		var id string
		err := sql.QueryRow(ctx, sqlinline.QSeedConfigPrimary,
			c.category, c.value, c.label, nil, i,
		).Scan(&id)
		if infra.IsNoRows(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("bootstrap: seed catalog %s/%s: %w", c.category, c.value, err)
		}
	}

	if err := seedDemoAgent(ctx, sql); err != nil {
		return err
	}

	logger.Info().Int("catalog_rows", len(demoCatalog)).Msg("demo fixtures ready")
	return nil
}

// seedDemoAgent inserts one inactive webhook agent documenting the expected
// row shape. It only runs against an empty table so operator edits survive
// a reseed.
func seedDemoAgent(ctx context.Context, sql infra.SQLExecutor) error {
	rows, err := sql.Query(ctx, sqlinline.QSelectAgents)
	if err != nil {
		return fmt.Errorf("bootstrap: list webhook agents: %w", err)
	}
	agents := 0
	for rows.Next() {
		agents++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("bootstrap: list webhook agents: %w", err)
	}
	if agents > 0 {
		return nil
	}

	var agentID string
	err = sql.QueryRow(ctx, sqlinline.QUpsertAgent,
		"social-post", "n8n-local", "http://localhost:5678/webhook/generate", nil, nil, 0.6, false,
	).Scan(&agentID)
	if err != nil && !infra.IsNoRows(err) {
		return fmt.Errorf("bootstrap: seed webhook agent: %w", err)
	}
	return nil
}

// marker returns the identifying first line of an inline statement.
func marker(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return strings.TrimSpace(stmt)
}
