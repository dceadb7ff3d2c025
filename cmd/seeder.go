package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	apperrors "github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	templateDatamodel "github.com/frahmantamala/access-audit-reports/internal/core/datamodel/template"
	"github.com/frahmantamala/access-audit-reports/internal/template"
	templatePostgres "github.com/frahmantamala/access-audit-reports/internal/template/postgres"
	"github.com/spf13/cobra"
)

var sampleTemplates = []template.SaveTemplateDTO{
	{
		Name:      "Active users",
		Category:  "user_data",
		Selection: []string{"users", "user.name", "user.email", "user.profile", "user.active"},
	},
	{
		Name:      "Profile privileges",
		Category:  "user_data",
		Selection: []string{"profiles", "profile.name", "profile.modify_all", "profile.view_all"},
	},
	{
		Name:     "All permission assignments",
		Category: "permission_assignment",
		Selection: []string{
			"permission_set_assignments", "psa.assignee_name", "psa.permission_set",
			"permission_set_group_assignments", "psga.assignee_name", "psga.group",
		},
	},
	{
		Name:      "Org-wide defaults",
		Category:  "sharing_settings",
		Selection: []string{"org_wide_defaults", "owd.internal", "owd.external"},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample report templates",
	Long:  `Seed the database with sample report templates for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := setupLogger(cfg)

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			res := gormDB.WithContext(ctx).Where("1 = 1").Delete(&templateDatamodel.ReportTemplate{})
			if res.Error != nil {
				log.Fatalf("failed to clear templates: %v", res.Error)
			}
			fmt.Printf("Cleared %d templates\n", res.RowsAffected)
		}

		service := template.NewService(templatePostgres.NewTemplateRepository(gormDB), catalog.MustDefault(), lg)
		for _, dto := range sampleTemplates {
			id, err := service.Save(ctx, dto)
			if errors.Is(err, apperrors.ErrTemplateExists) {
				fmt.Printf("template %q already exists in %s\n", dto.Name, dto.Category)
				continue
			}
			if err != nil {
				log.Fatalf("failed to seed template %q: %v", dto.Name, err)
			}
			fmt.Printf("Seeded template %q (%s)\n", dto.Name, id)
		}

		fmt.Println("Report templates seeded successfully")
	},
}
