package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mynu/mynu-backend/config"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/app/repository"
	"github.com/mynu/mynu-backend/internal/app/service"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/db"
	"github.com/mynu/mynu-backend/internal/storage"
)

const defaultMenuName = "Cardápio"

func main() {
	// seed                                  -> role catalog only
	// seed <xlsx_file_path> <owner_email> [menu_name]
	if len(os.Args) == 2 || len(os.Args) > 4 {
		log.Fatal("Usage: go run cmd/seed/main.go [<xlsx_file_path> <owner_email> [menu_name]]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	conn := db.GetDB()
	if err := db.MigrateDB(conn); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	registry := authz.NewRegistry(repository.NewRoleRepository(conn))
	if err := registry.Reload(); err != nil {
		log.Fatal("Failed to load roles:", err)
	}
	for _, role := range model.DefaultRoles() {
		fmt.Printf("Role %-10s permissions: %v\n", role.Name, registry.Permissions(role.Name))
	}

	if len(os.Args) < 3 {
		fmt.Println("Role catalog seeded.")
		return
	}

	filePath, email := os.Args[1], os.Args[2]
	menuName := defaultMenuName
	if len(os.Args) == 4 {
		menuName = os.Args[3]
	}

	user, err := repository.NewUserRepository(conn).FindByEmail(email)
	if err != nil {
		log.Fatalf("User %s not found: %v", email, err)
	}

	ctx := context.Background()
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	storeRepo := repository.NewStoreRepository(conn)
	menuRepo := repository.NewMenuRepository(conn)
	sectionRepo := repository.NewSectionRepository(conn)
	dishRepo := repository.NewDishRepository(conn)

	importer := service.NewMenuImporter(
		service.NewMenuService(storeRepo, menuRepo, sectionRepo, dishRepo, files, cfg.Server.PublicURL),
		service.NewSectionService(storeRepo, menuRepo, sectionRepo, dishRepo, files),
		service.NewDishService(storeRepo, menuRepo, sectionRepo, dishRepo, files),
	)

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	fmt.Printf("Importing %s into menu %q for %s\n", filePath, menuName, email)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	result, err := importer.Import(ctx, user.ID, menuName, f)
	if err != nil {
		log.Fatal("Failed to import menu:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("  Menu:     %s (/%s)\n", result.Menu.Name, result.Menu.Slug)
	fmt.Printf("  Sections: %d\n", result.Sections)
	fmt.Printf("  Dishes:   %d\n", result.Dishes)
	fmt.Printf("  Skipped:  %d\n", result.Skipped)
}
