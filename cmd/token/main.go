// token emite un JWT de desarrollo firmado con JWT_SECRET.
//
// Uso: go run ./cmd/token <user_id> <company_id> <rol> [minutos]
// Sin minutos usa JWT_EXPIRATION_MINUTES.
// rol: admin | bodeguero | vendedor
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "uso: token <user_id> <company_id> <rol> [minutos]")
		os.Exit(2)
	}
	userID, companyID, role := os.Args[1], os.Args[2], os.Args[3]
	switch role {
	case jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor:
	default:
		fmt.Fprintf(os.Stderr, "rol desconocido %q\n", role)
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	minutes := cfg.JWT.Expiration
	if len(os.Args) > 4 {
		n, err := strconv.Atoi(os.Args[4])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "minutos inválidos %q\n", os.Args[4])
			os.Exit(2)
		}
		minutes = n
	}

	if cfg.App.Env == "production" {
		fmt.Fprintln(os.Stderr, "token de desarrollo deshabilitado en producción")
		os.Exit(1)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, userID, companyID, role, cfg.JWT.Issuer, minutes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Firmar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
