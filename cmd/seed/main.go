// Command seed populates a development database with a few data sources and
// whitelist entries so the scheduler has something to chew on.
package main

import (
	"log"

	"github.com/Wikid82/blackfeed/backend/internal/config"
	"github.com/Wikid82/blackfeed/backend/internal/database"
	"github.com/Wikid82/blackfeed/backend/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	sources := []models.DataSource{
		{
			Name:                 "feodo-ipblocklist",
			URL:                  "https://feodotracker.abuse.ch/downloads/ipblocklist.txt",
			Kinds:                "ip",
			FetchIntervalSeconds: 3600,
			Active:               true,
		},
		{
			Name:                 "urlhaus-text",
			URL:                  "https://urlhaus.abuse.ch/downloads/text/",
			Kinds:                "url,domain",
			FetchIntervalSeconds: 1800,
			Active:               true,
		},
		{
			Name:                 "openphish-feed",
			URL:                  "https://openphish.com/feed.txt",
			Kinds:                "url",
			FetchIntervalSeconds: 7200,
			Active:               true,
		},
	}
	for _, src := range sources {
		if err := db.Where(models.DataSource{Name: src.Name}).FirstOrCreate(&src).Error; err != nil {
			log.Fatalf("seed source %s: %v", src.Name, err)
		}
	}

	entries := []models.WhitelistEntry{
		{Value: "10.0.0.0/8", Kind: models.KindIP, Reason: "internal address space"},
		{Value: "192.168.0.0/16", Kind: models.KindIP, Reason: "internal address space"},
		{Value: "example.com", Kind: models.KindDomain, Reason: "documentation domain"},
	}
	for _, entry := range entries {
		if err := db.Where(models.WhitelistEntry{Value: entry.Value, Kind: entry.Kind}).FirstOrCreate(&entry).Error; err != nil {
			log.Fatalf("seed whitelist entry %s: %v", entry.Value, err)
		}
	}

	log.Printf("seeded %d sources and %d whitelist entries", len(sources), len(entries))
}
