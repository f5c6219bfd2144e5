package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazy2go/instagram-discord-bot/internal/domain/entity"
	"github.com/hazy2go/instagram-discord-bot/internal/repository"
)

// SeedSource is one entry of the YAML sources file. Each entry maps a
// profile handle to a Discord destination.
//
// Example file:
//
//	sources:
//	  - handle: nasa
//	    channel_id: "123456789012345678"
//	    webhook_url: https://discord.com/api/webhooks/123/abc
//	  - handle: natgeo
//	    webhook_url: https://discord.com/api/webhooks/456/def
//	    active: false
type SeedSource struct {
	Handle     string `yaml:"handle"`
	ChannelID  string `yaml:"channel_id"`
	WebhookURL string `yaml:"webhook_url"`
	Active     *bool  `yaml:"active"`
}

// seedFile is the top-level YAML document.
type seedFile struct {
	Sources []SeedSource `yaml:"sources"`
}

// LoadSeedSources reads and parses the YAML sources file at path.
// Entries without a handle or webhook URL are rejected.
func LoadSeedSources(path string) ([]SeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadSeedSources: read %s: %w", path, err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("LoadSeedSources: parse %s: %w", path, err)
	}

	for i, s := range doc.Sources {
		if s.Handle == "" {
			return nil, fmt.Errorf("LoadSeedSources: entry %d: handle is required", i)
		}
		if s.WebhookURL == "" {
			return nil, fmt.Errorf("LoadSeedSources: entry %d (%s): webhook_url is required", i, s.Handle)
		}
	}

	return doc.Sources, nil
}

// SyncSeedSources upserts the seed entries into the source registry.
// Existing sources keep their last-item marker and check timestamp; only
// the active flag is reconciled. Destinations are added when the webhook
// URL is not already registered for the source, so re-running the sync is
// safe.
func SyncSeedSources(ctx context.Context, sources repository.SourceRepository, destinations repository.DestinationRepository, seeds []SeedSource, logger *slog.Logger) error {
	for _, seed := range seeds {
		active := true
		if seed.Active != nil {
			active = *seed.Active
		}

		src, err := sources.GetByHandle(ctx, seed.Handle)
		if err != nil {
			return fmt.Errorf("SyncSeedSources: get %s: %w", seed.Handle, err)
		}

		if src == nil {
			src = &entity.Source{Handle: seed.Handle, Active: active}
			if err := src.Validate(); err != nil {
				return fmt.Errorf("SyncSeedSources: %w", err)
			}
			if err := sources.Create(ctx, src); err != nil {
				return fmt.Errorf("SyncSeedSources: create %s: %w", seed.Handle, err)
			}
			logger.Info("seed source created",
				slog.String("handle", seed.Handle),
				slog.Int64("source_id", src.ID))
		} else if src.Active != active {
			if err := sources.SetActive(ctx, src.ID, active); err != nil {
				return fmt.Errorf("SyncSeedSources: set active %s: %w", seed.Handle, err)
			}
			logger.Info("seed source active flag updated",
				slog.String("handle", seed.Handle),
				slog.Bool("active", active))
		}

		existing, err := destinations.ListForSource(ctx, src.ID)
		if err != nil {
			return fmt.Errorf("SyncSeedSources: list destinations %s: %w", seed.Handle, err)
		}

		found := false
		for _, d := range existing {
			if d.WebhookURL == seed.WebhookURL {
				found = true
				break
			}
		}
		if found {
			continue
		}

		dest := &entity.Destination{
			SourceID:   src.ID,
			ChannelID:  seed.ChannelID,
			WebhookURL: seed.WebhookURL,
		}
		if err := destinations.Add(ctx, dest); err != nil {
			return fmt.Errorf("SyncSeedSources: add destination %s: %w", seed.Handle, err)
		}
		logger.Info("seed destination added",
			slog.String("handle", seed.Handle),
			slog.String("channel_id", seed.ChannelID))
	}

	return nil
}
