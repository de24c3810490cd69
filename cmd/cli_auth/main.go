package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"otp-auth/internal/client"
	"otp-auth/internal/config"
)

type app struct {
	api    *client.API
	store  client.StateStore
	prompt *prompter
	out    io.Writer
	logger *zap.Logger
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewNop()
	if cfg.Debug {
		logger = zap.NewExample()
	}
	defer logger.Sync()

	api, err := client.NewAPI(cfg.APIURL, nil)
	if err != nil {
		log.Fatal(err)
	}

	a := &app{
		api:    api,
		store:  client.NewFileStateStore(cfg.StateFile),
		prompt: newPrompter(os.Stdin, os.Stdout),
		out:    os.Stdout,
		logger: logger,
	}
	if err := a.run(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal(err)
	}
}

func (a *app) run(ctx context.Context) error {
	for {
		fmt.Fprintln(a.out, "\n===== OTP Auth =====")
		fmt.Fprintln(a.out, "[1] Registrarse")
		fmt.Fprintln(a.out, "[2] Iniciar sesion")
		fmt.Fprintln(a.out, "[3] Verificar cuenta")
		fmt.Fprintln(a.out, "[4] Resetear contraseña")
		fmt.Fprintln(a.out, "[5] Mis datos")
		fmt.Fprintln(a.out, "[6] URL de Google")
		fmt.Fprintln(a.out, "[7] Cerrar sesion")
		fmt.Fprintln(a.out, "[8] Salir")

		choice, err := a.prompt.line("Selecciona una opcion: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = a.register(ctx)
		case "2":
			err = a.login(ctx)
		case "3":
			err = a.verify(ctx)
		case "4":
			err = a.reset(ctx)
		case "5":
			err = a.userData(ctx)
		case "6":
			err = a.googleURL(ctx)
		case "7":
			err = a.api.Logout(ctx)
			if err == nil {
				fmt.Fprintln(a.out, "Sesion cerrada.")
			}
		case "8":
			return nil
		default:
			fmt.Fprintln(a.out, "Opcion invalida.")
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintf(a.out, "Error: %s\n", client.ErrorMessage(err))
		}
	}
}

func (a *app) register(ctx context.Context) error {
	name, err := a.prompt.line("Nombre: ")
	if err != nil {
		return err
	}
	email, err := a.prompt.line("Email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.password("Password: ")
	if err != nil {
		return err
	}
	user, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Cuenta creada para %s. Verificala con la opcion 3.\n", user.Email)
	return nil
}

func (a *app) login(ctx context.Context) error {
	email, err := a.prompt.line("Email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.password("Password: ")
	if err != nil {
		return err
	}
	if err := a.api.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sesion iniciada.")
	return nil
}

func (a *app) userData(ctx context.Context) error {
	data, err := a.api.UserData(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Nombre: %s\nEmail: %s\nVerificada: %t\nProveedor: %s\n",
		data.Name, data.Email, data.IsAccountVerified, data.AuthProvider)
	return nil
}

func (a *app) googleURL(ctx context.Context) error {
	url, err := a.api.GoogleAuthURL(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Abre en el navegador:\n%s\n", url)
	return nil
}

// verify retoma el OTP activo si el servidor tiene uno; si no, ofrece enviarlo.
func (a *app) verify(ctx context.Context) error {
	flow := client.NewVerifyFlow(a.logger, a.api, client.SystemClock{})
	defer flow.Close()
	flow.OnTimer(expiryNotice(a.out))

	if err := flow.Mount(ctx); err != nil {
		if errors.Is(err, client.ErrAlreadyVerified) {
			fmt.Fprintln(a.out, "La cuenta ya esta verificada.")
			return nil
		}
		return err
	}

	for {
		timer := flow.Timer()
		if timer.IsExpired {
			fmt.Fprintln(a.out, "No hay codigo activo. [S] enviar codigo, [Q] volver")
		} else {
			fmt.Fprintf(a.out, "Codigo enviado, expira en %s. Ingresa el codigo, [R] reenviar, [Q] volver\n", client.FormatTime(timer.TimeLeft))
		}
		line, err := a.prompt.line("> ")
		if err != nil {
			return err
		}
		switch strings.ToUpper(line) {
		case "Q":
			return nil
		case "S", "R":
			if err := flow.SendCode(ctx); err != nil {
				fmt.Fprintf(a.out, "Error: %s\n", client.ErrorMessage(err))
			}
			continue
		}
		flow.Input().Paste(line)
		if err := flow.Submit(ctx); err != nil {
			fmt.Fprintf(a.out, "Error: %s\n", client.ErrorMessage(err))
			continue
		}
		fmt.Fprintln(a.out, "Cuenta verificada.")
		return nil
	}
}

// reset conduce el flujo de tres pasos; el progreso sobrevive a reinicios del cliente.
func (a *app) reset(ctx context.Context) error {
	flow := client.NewResetFlow(a.logger, a.api, a.store, client.SystemClock{})
	defer flow.Close()
	flow.OnTimer(expiryNotice(a.out))

	if err := flow.Mount(); err != nil {
		a.logger.Warn("restore reset state failed", zap.Error(err))
	}
	if flow.Step() != client.StepEmail {
		fmt.Fprintf(a.out, "Retomando reseteo para %s.\n", flow.State().Email)
	}

	for !flow.Done() {
		var err error
		switch flow.Step() {
		case client.StepEmail:
			var email string
			email, err = a.prompt.line("Email ([Q] volver): ")
			if err != nil {
				return err
			}
			if strings.EqualFold(email, "Q") {
				return nil
			}
			err = flow.SubmitEmail(ctx, email)
		case client.StepVerifyOTP:
			fmt.Fprintf(a.out, "Revisa tu correo, el codigo expira en %s.\n", client.FormatTime(flow.Timer().TimeLeft))
			var line string
			line, err = a.prompt.line("Codigo ([R] reenviar, [C] cancelar): ")
			if err != nil {
				return err
			}
			switch strings.ToUpper(line) {
			case "R":
				err = flow.Resend(ctx)
			case "C":
				return flow.Cancel()
			default:
				flow.Input().Paste(line)
				err = flow.SubmitOTP(ctx)
			}
		case client.StepNewPassword:
			var password, confirm string
			if password, err = a.prompt.password("Nueva contraseña: "); err != nil {
				return err
			}
			if confirm, err = a.prompt.password("Repite la contraseña: "); err != nil {
				return err
			}
			err = flow.SubmitNewPassword(ctx, password, confirm)
		}
		if err != nil {
			fmt.Fprintf(a.out, "Error: %s\n", client.ErrorMessage(err))
		}
	}
	fmt.Fprintln(a.out, "Contraseña actualizada. Ya puedes iniciar sesion.")
	return nil
}

// expiryNotice avisa cuando el código vence mientras el prompt espera input.
// Avisa una vez por expiración, así que un reenvío vuelve a habilitar el aviso.
func expiryNotice(out io.Writer) func(client.TimerState) {
	var (
		mu       sync.Mutex
		notified time.Time
	)
	return func(s client.TimerState) {
		if !s.IsExpired || s.ExpirationTime == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if s.ExpirationTime.Equal(notified) {
			return
		}
		notified = *s.ExpirationTime
		fmt.Fprintln(out, "\nEl codigo expiro. Pide uno nuevo para continuar.")
	}
}
