package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/awnumar/memguard"
	"github.com/sqlparrot/sqlparrot/internal/models"
)

// ShowConnection prints the saved connection profile, if any. The password
// is never returned by the backend.
func (a *App) ShowConnection(ctx context.Context) error {
	conn, err := a.client.GetConnection(ctx)
	if err != nil {
		a.theme.Error.Printf("Error: %v\n", err)
		return err
	}
	if conn == nil {
		a.theme.Muted.Println("No saved connection. Use 'connection save' to add one.")
		return nil
	}

	a.theme.Title.Println("Connection")
	fmt.Printf("  host:       %s:%d\n", conn.Host, conn.Port)
	fmt.Printf("  username:   %s\n", conn.Username)
	fmt.Printf("  trust cert: %t\n", conn.TrustCertificate)
	if conn.SnapshotPath != "" {
		fmt.Printf("  snapshots:  %s\n", conn.SnapshotPath)
	}
	return nil
}

// TestConnection probes SQL Server with prompted parameters and prints the
// server version on success. Leaving the password empty reuses the saved
// profile's password when host, port, and username match it.
func (a *App) TestConnection(ctx context.Context) error {
	req, password, err := a.promptConnection(ctx)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	version, err := a.client.TestConnection(ctx, req)
	if err != nil {
		a.theme.Error.Printf("Connection failed: %v\n", err)
		return err
	}
	a.theme.Success.Printf("Connected: %s\n", version)
	return nil
}

// SaveConnection stores the prompted parameters as the active profile after
// a successful test on the backend side.
func (a *App) SaveConnection(ctx context.Context) error {
	req, password, err := a.promptConnection(ctx)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(password)

	if err := a.client.SaveConnection(ctx, req); err != nil {
		a.theme.Error.Printf("Save connection failed: %v\n", err)
		return err
	}
	a.theme.Success.Println("Connection saved.")
	return nil
}

// promptConnection gathers connection parameters, pre-filling prompts from
// the saved profile when one exists. The raw password bytes are returned so
// the caller can wipe them.
func (a *App) promptConnection(ctx context.Context) (models.ConnectionRequest, []byte, error) {
	var req models.ConnectionRequest

	saved, err := a.client.GetConnection(ctx)
	if err != nil || saved == nil {
		saved = &models.Connection{Host: "localhost", Port: 1433}
	}

	host, err := getSimpleText(a.reader, fmt.Sprintf("Host (Enter keeps %s)", saved.Host), os.Stdout)
	if err != nil {
		return req, nil, err
	}
	if host == "" {
		host = saved.Host
	}

	portText, err := getSimpleText(a.reader, fmt.Sprintf("Port (Enter keeps %d)", saved.Port), os.Stdout)
	if err != nil {
		return req, nil, err
	}
	port := saved.Port
	if portText != "" {
		n, convErr := strconv.Atoi(portText)
		if convErr != nil || n < 1 || n > 65535 {
			a.theme.Error.Println("Port must be a number between 1 and 65535.")
			return req, nil, fmt.Errorf("invalid port %q", portText)
		}
		port = n
	}

	username, err := getSimpleText(a.reader, fmt.Sprintf("Username (Enter keeps %s)", orDash(saved.Username)), os.Stdout)
	if err != nil {
		return req, nil, err
	}
	if username == "" {
		username = saved.Username
	}

	password, err := getPassword(os.Stdout, "Password (Enter reuses the saved one)")
	if err != nil {
		return req, nil, err
	}

	trust, err := getConfirmation(a.reader, "Trust the server certificate?", os.Stdout)
	if err != nil {
		return req, nil, err
	}

	snapshotPath, err := getSimpleText(a.reader, "Snapshot file directory (Enter for server default)", os.Stdout)
	if err != nil {
		return req, nil, err
	}

	req = models.ConnectionRequest{
		Host:             host,
		Port:             port,
		Username:         username,
		Password:         string(password),
		TrustCertificate: trust,
		SnapshotPath:     snapshotPath,
	}
	return req, password, nil
}
