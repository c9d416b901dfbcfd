package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"vehicle-registration-bot/internal/config"
	pg "vehicle-registration-bot/internal/infra/db/postgres"
	"vehicle-registration-bot/internal/usecase"
)

// Seeds the wrap-template catalog so a fresh deployment has something to show
// in the template browser. Safe to re-run: does nothing when templates exist.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	nop := zerolog.Nop()
	templateUC := usecase.NewTemplateUseCase(pg.NewPostgresTemplateRepo(pool), &nop)

	existing, err := templateUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list templates: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d templates already present. No changes.\n", len(existing))
		return
	}

	samples := []struct {
		name, description, localPath string
	}{
		{"Классика", "Белый фон, шашечный пояс по борту", "classic.jpg"},
		{"Спорт", "Чёрный фон, акцентные полосы", "sport.jpg"},
		{"Минимал", "Логотип и шашечный пояс без заливки", "minimal.jpg"},
	}
	for _, s := range samples {
		tpl, err := templateUC.Create(ctx, s.name, s.description, "", s.localPath)
		if err != nil {
			log.Fatalf("seed template %q: %v", s.name, err)
		}
		fmt.Printf("created template %s (%s)\n", tpl.Name, tpl.ID)
	}
	fmt.Println("Seeding complete.")
}
