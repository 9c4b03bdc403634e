// Package cronjobs runs the periodic geocode backfill.
package cronjobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"geolert/aggregation"
	"geolert/db"
)

// backfillGeocoding retries geocoding for incidents that were ingested without
// coordinates. Aggregate counters are untouched, so no version check is
// needed.
func backfillGeocoding(store db.Store, geocoder aggregation.Geocoder) {
	ctx := context.Background()

	unlocated, err := store.ListUnlocatedIncidents(ctx)
	if err != nil {
		log.Printf("Geocode backfill: listing unlocated incidents failed: %v", err)
		return
	}
	if len(unlocated) == 0 {
		return
	}

	log.Printf("Geocode backfill: %d incidents without coordinates", len(unlocated))
	for _, inc := range unlocated {
		coords, err := geocoder.Locate(ctx, inc.Location)
		if err != nil {
			log.Printf("Geocode backfill: failed to geocode %q: %v", inc.Location, err)
			continue
		}
		if coords == nil {
			continue // still unknown to the geocoder, try again next run
		}
		if err := store.SetIncidentCoordinates(ctx, inc.ID, *coords); err != nil {
			log.Printf("Geocode backfill: failed to update incident %s: %v", inc.ID, err)
			continue
		}
		log.Printf("Geocode backfill: located incident %s at (%f, %f)", inc.ID, coords.Lat, coords.Lng)
	}
}

// InitCronJobs schedules the background jobs. Callers pass a nil geocoder when
// no Maps key is configured, which disables the backfill.
func InitCronJobs(store db.Store, geocoder aggregation.Geocoder) {
	if geocoder == nil {
		log.Println("Geocode backfill disabled: no geocoder configured")
		return
	}

	log.Println("Starting Cron Jobs -------------------------------------------------------")
	c := cron.New()

	// Geocode backfill: run every 10 minutes
	_, err := c.AddFunc("*/10 * * * *", func() {
		log.Println("CronJob: Geocode Backfill Running")
		backfillGeocoding(store, geocoder)
	})
	if err != nil {
		log.Println("Error scheduling Geocode Backfill:", err)
	}

	c.Start()
}
