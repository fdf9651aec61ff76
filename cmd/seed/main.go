// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"facturador/internal/config"
	"facturador/internal/core/apperror"
	"facturador/internal/domain/catalogs/client"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/infrastructure/storage/postgres"
	"facturador/internal/infrastructure/storage/postgres/catalog_repo"
	"facturador/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.ConnectionString()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	issuerRepo := catalog_repo.NewIssuerRepo(txManager)
	clientRepo := catalog_repo.NewClientRepo(txManager)

	if err := seedIssuers(ctx, issuerRepo, log); err != nil {
		log.Fatalw("failed to seed issuers", "error", err)
	}
	if err := seedClients(ctx, clientRepo, log); err != nil {
		log.Fatalw("failed to seed clients", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedIssuers(ctx context.Context, repo *catalog_repo.IssuerRepo, log *logger.Logger) error {
	issuers := []*issuer.Issuer{
		newIssuer("ASOCIACIÓN CULTURAL AIRES DEL PAS", "Aires del Pas", "G39867940",
			"San Fernando 4A-10I", "39010", "Santander", "Cantabria", "A"),
		newIssuer("ASOCIACIÓN DE COMERCIANTES DE CANTABRIA NORDESTE", "Comerciantes Cantabria NE", "G44749281",
			"San Fernando 4A-10ºI", "39010", "Santander", "Cantabria", "B"),
		newIssuer("ZEBRA PUBLICIDAD SL", "Zebra Publicidad", "B39302369",
			"San Fernando 4A-10ºIZQ", "39010", "Santander", "Cantabria", "C"),
		newIssuer("CARPE 18 SL", "Carpe 18", "B39868732",
			"C/ La Habana Nº 9-3ºC", "39008", "Santander", "Cantabria", "D"),
	}

	for _, iss := range issuers {
		existing, err := repo.GetByTaxID(ctx, iss.TaxID)
		if err == nil {
			log.Infow("issuer already exists", "name", existing.Name, "tax_id", existing.TaxID)
			continue
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		if err := repo.Create(ctx, iss); err != nil {
			return err
		}
		log.Infow("issuer created", "name", iss.Name, "tax_id", iss.TaxID, "series", iss.CurrentSeries)
	}
	return nil
}

func seedClients(ctx context.Context, repo *catalog_repo.ClientRepo, log *logger.Logger) error {
	clients := []*client.Client{
		newClient("Ayuntamiento de Madrid", "P2807900E",
			"Plaza de la Villa, 4", "28005", "Madrid", "Madrid"),
		newClient("Empresa Ejemplo S.L.", "B98765432",
			"Calle del Comercio 50", "28006", "Madrid", "Madrid"),
	}

	for _, cl := range clients {
		existing, err := repo.GetBy(ctx, "tax_id", cl.TaxID)
		if err == nil {
			log.Infow("client already exists", "name", existing.Name, "tax_id", existing.TaxID)
			continue
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		if err := repo.Create(ctx, cl); err != nil {
			return err
		}
		log.Infow("client created", "name", cl.Name, "tax_id", cl.TaxID)
	}
	return nil
}

func newIssuer(name, tradeName, taxID, address, postalCode, city, province, series string) *issuer.Issuer {
	iss := issuer.New(name, taxID)
	iss.TradeName = tradeName
	iss.Address = address
	iss.PostalCode = postalCode
	iss.City = city
	iss.Province = province
	iss.CurrentSeries = series
	return iss
}

func newClient(name, taxID, address, postalCode, city, province string) *client.Client {
	cl := client.New(name, taxID)
	cl.Address = address
	cl.PostalCode = postalCode
	cl.City = city
	cl.Province = province
	return cl
}
