package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/careloop/clinic-booking/internal/db"
)

// Every seeded account gets this password so the simulator and manual
// testing can sign in.
const seedPassword = "seedpass1"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

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

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.MinCost)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	doctorIDs, err := seedDoctors(context.Background(), pool, string(hash), 20)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, string(hash), 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(context.Background(), pool, doctorIDs, 10); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := fmt.Sprintf("doctor%d@example.com", i+1)
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, role, password_hash, created_at)
			VALUES ($1, $2, $3, 'doctor', $4, now())
		`, id, name, email, passwordHash)
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (doctor_id, name, specialty)
			VALUES ($1, $2, $3)
		`, id, name, spec)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := fmt.Sprintf("patient%d@example.com", i+1)

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, name, email, role, password_hash, created_at)
				VALUES ($1, $2, $3, 'patient', $4, now())
			`, id, name, email, passwordHash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO patients (patient_id, first_name)
				VALUES ($1, $2)
			`, id, name)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, perDoctor int) error {
	log.Printf("seeding %d slots per doctor", perDoctor)

	starts := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00", "15:30", "16:00"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		for i := 0; i < perDoctor && i < len(starts); i++ {
			date := time.Now().AddDate(0, 0, gofakeit.Number(1, 14)).Format("2006-01-02")
			start, _ := time.Parse("15:04", starts[i])
			end := start.Add(30 * time.Minute).Format("15:04")

			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_availability (id, doctor_id, visit_date, start_time, end_time, is_online, is_booked, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, false, now())
			`, uuid.New(), doctorID, date, starts[i], end, gofakeit.Bool())
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("slots seeded")
	return nil
}
