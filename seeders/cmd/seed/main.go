package main

import (
	"flag"
	"log"

	"asset-system/pkg/config"
	"asset-system/pkg/database/postgresql"
	"asset-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runDepartments := flag.Bool("departments", false, "Наполнить справочник подразделений")
	runAdmin := flag.Bool("admin", false, "Создать первого администратора")
	runAll := flag.Bool("all", false, "Запустить все сидеры")

	flag.Parse()

	if !*runDepartments && !*runAdmin && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -departments")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)

	if err := postgresql.Migrate(cfg.Postgres.DSN, "migrations"); err != nil {
		log.Fatalf("❌ не удалось применить миграции: %v", err)
	}

	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runDepartments {
		seeders.SeedDepartments(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runAdmin {
		// Администратор привязывается к подразделению IT.
		seeders.SeedAdmin(dbPool)
		log.Println("======================================================")
	}

	log.Println("🎉 Сидинг завершён.")
}
