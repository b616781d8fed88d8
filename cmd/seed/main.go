package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taczaangel/MiProyecto/internal/db"
	"github.com/taczaangel/MiProyecto/internal/slot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	weeks := flag.Int("weeks", 4, "how many upcoming weeks to fill with slots")
	perDay := flag.Int("per-day", 6, "slots per provider per working day")
	withCitas := flag.Bool("citas", false, "also seed sample confirmed appointments")
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedSlots(context.Background(), pool, *weeks, *perDay); err != nil {
		log.Fatalf("seed slots: %v", err)
	}
	if *withCitas {
		if err := seedCitas(context.Background(), pool, 20); err != nil {
			log.Fatalf("seed citas: %v", err)
		}
	}

	log.Println("seed complete")
}

// seedSlots fills Monday through Friday mornings for every provider,
// starting tomorrow.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, weeks, perDay int) error {
	providers := []string{
		slot.ProviderElio,
		slot.ProviderManuel,
		slot.ProviderJimy,
		slot.ProviderFernando,
	}

	start := time.Now().UTC().AddDate(0, 0, 1)
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for day := 0; day < weeks*7; day++ {
		date := start.AddDate(0, 0, day)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		for _, key := range providers {
			for i := 0; i < perDay; i++ {
				slotStart := date.Add(14*time.Hour + time.Duration(i)*slot.DefaultSlotLength)
				slotEnd := slotStart.Add(slot.DefaultSlotLength)

				tag, err := tx.Exec(ctx, `
					INSERT INTO slots (provider, title, specialty, start_time, end_time, held_by, held_until)
					VALUES ($1, $2, $3, $4, $5, NULL, NULL)
					ON CONFLICT (provider, start_time) DO NOTHING
				`, key, slot.DisplayName(key), string(slot.SpecialtyFor(key)), slotStart, slotEnd)
				if err != nil {
					return err
				}
				inserted += int(tag.RowsAffected())
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("slots seeded: %d new", inserted)
	return nil
}

// seedCitas writes sample confirmed appointments, useful for exercising the
// duplicate-DNI and change flows against a fresh database.
func seedCitas(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d citas", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		startUTC := time.Now().UTC().AddDate(0, 0, gofakeit.Number(1, 21))
		startUTC = time.Date(startUTC.Year(), startUTC.Month(), startUTC.Day(),
			gofakeit.Number(14, 22), 0, 0, 0, time.UTC)

		key := slot.GeneralProviders[gofakeit.Number(0, len(slot.GeneralProviders)-1)]
		consultorio := "odontologia general"
		if gofakeit.Bool() {
			key = slot.PediatricProviders[gofakeit.Number(0, len(slot.PediatricProviders)-1)]
			consultorio = "odontopediatria"
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO citas (id, nombre, dni, edad, consultorio, profesional, fecha, hora, chat_id, status, start_utc, confirmed_at, cancelled_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, 'confirmada', $9, now(), NULL)
		`,
			gofakeit.FirstName()+" "+gofakeit.LastName(),
			gofakeit.DigitN(8),
			gofakeit.Number(1, 90),
			consultorio,
			slot.DisplayName(key),
			startUTC.Format("02/01/2006"),
			startUTC.Format("15:04"),
			gofakeit.DigitN(11)+"@c.us",
			startUTC,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("citas seeded")
	return nil
}
