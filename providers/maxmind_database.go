package providers

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/9seconds/geolocator/geolib"
	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/spf13/afero"
)

const maxmindDatabaseExt = ".mmdb"

type maxmindDatabaseProvider struct {
	client       geolib.HTTPClient
	fs           afero.Fs
	databasePath string
	bundledPath  string
	updateURL    string
	locales      []string

	reader     *maxminddb.Reader
	readerLock sync.RWMutex
}

func (m *maxmindDatabaseProvider) Name() string {
	return NameMaxmindDatabase
}

// Boot opens a database. If database file is absent, it is copied from
// a bundled file or downloaded. If there is no way to get it, provider
// stays not ready until the first successful Update.
func (m *maxmindDatabaseProvider) Boot(ctx context.Context) error {
	exists, err := geolib.FileExists(m.fs, m.databasePath)
	if err != nil {
		return err
	}

	switch {
	case exists:
	case m.bundledPath != "":
		if err := geolib.CopyFile(m.fs, m.bundledPath, m.databasePath); err != nil {
			return fmt.Errorf("cannot copy bundled database: %w", err)
		}
	case m.updateURL != "":
		_, err := m.Update(ctx)

		return err
	default:
		return nil
	}

	return m.open()
}

func (m *maxmindDatabaseProvider) Locate(ctx context.Context, ip string) (geolib.Location, error) {
	rv := geolib.Location{}

	if err := ctx.Err(); err != nil {
		return rv, fmt.Errorf("cannot lookup this ip address: %w", err)
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return rv, fmt.Errorf("incorrect ip address %s", ip)
	}

	m.readerLock.RLock()
	defer m.readerLock.RUnlock()

	if m.reader == nil {
		return rv, ErrDatabaseIsNotReadyYet
	}

	record := geoip2.City{}

	_, ok, err := m.reader.LookupNetwork(parsedIP, &record)

	switch {
	case err != nil:
		return rv, fmt.Errorf("cannot lookup this ip address: %w", err)
	case !ok:
		return rv, &geolib.AddressNotFoundError{IP: ip}
	}

	return newMaxmindRecordFromCity(&record).toLocation(ip, m.locales), nil
}

// Update downloads a tar.gz archive, finds a database there and
// replaces the current one. All intermediate files are kept in a
// temporary directory next to the database which is removed on any
// outcome.
func (m *maxmindDatabaseProvider) Update(ctx context.Context) (string, error) {
	if m.updateURL == "" {
		return "", &geolib.ConfigurationError{
			Provider: NameMaxmindDatabase,
			Param:    "update_url",
			Message:  "parameter is required for updates",
		}
	}

	tmpDir, err := geolib.TempDir(m.fs, m.databasePath)
	if err != nil {
		return "", err
	}

	defer m.fs.RemoveAll(tmpDir) // nolint: errcheck

	if err := m.download(ctx, tmpDir); err != nil {
		return "", fmt.Errorf("cannot download a database: %w", err)
	}

	dbPath, err := m.findDatabaseFile(tmpDir)
	if err != nil {
		return "", err
	}

	// a broken candidate must never replace a working file
	reader, err := m.load(dbPath)
	if err != nil {
		return "", err
	}

	if err := geolib.CopyFile(m.fs, dbPath, m.databasePath); err != nil {
		reader.Close()

		return "", fmt.Errorf("cannot replace a database: %w", err)
	}

	m.swap(reader)

	return fmt.Sprintf("database file (%s) updated", m.databasePath), nil
}

func (m *maxmindDatabaseProvider) Close() error {
	m.readerLock.Lock()
	defer m.readerLock.Unlock()

	if m.reader == nil {
		return nil
	}

	err := m.reader.Close()
	m.reader = nil

	return err
}

func (m *maxmindDatabaseProvider) open() error {
	reader, err := m.load(m.databasePath)
	if err != nil {
		return err
	}

	m.swap(reader)

	return nil
}

func (m *maxmindDatabaseProvider) load(path string) (*maxminddb.Reader, error) {
	data, err := afero.ReadFile(m.fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read a database: %w", err)
	}

	reader, err := maxminddb.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize a reader of maxminddb: %w", err)
	}

	return reader, nil
}

func (m *maxmindDatabaseProvider) swap(reader *maxminddb.Reader) {
	m.readerLock.Lock()
	defer m.readerLock.Unlock()

	if m.reader != nil {
		m.reader.Close()
	}

	m.reader = reader
}

func (m *maxmindDatabaseProvider) download(ctx context.Context, rootDir string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.updateURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build a request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	ungzipReader, err := gzip.NewReader(bufio.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("cannot create a gzip reader: %w", err)
	}

	tarReader := tar.NewReader(ungzipReader)

	for {
		header, err := tarReader.Next()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("cannot extract a header: %w", err)
		}

		// Clean on a rooted path drops all leading .. elements.
		target := filepath.Join(rootDir, filepath.Clean("/"+header.Name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := m.fs.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("cannot create a directory %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := m.extractFile(target, tarReader); err != nil {
				return fmt.Errorf("cannot extract %s: %w", header.Name, err)
			}
		}
	}
}

func (m *maxmindDatabaseProvider) extractFile(target string, src io.Reader) error {
	if err := m.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	file, err := m.fs.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, src); err != nil {
		file.Close()

		return err
	}

	return file.Close()
}

// findDatabaseFile walks a directory tree depth-first. Files of the
// directory are checked before its subdirectories.
func (m *maxmindDatabaseProvider) findDatabaseFile(rootDir string) (string, error) {
	stack := []string{rootDir}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := afero.ReadDir(m.fs, dir)
		if err != nil {
			return "", fmt.Errorf("cannot read a directory %s: %w", dir, err)
		}

		subdirs := []string{}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			switch {
			case entry.IsDir():
				subdirs = append(subdirs, path)
			case entry.Mode().IsRegular() && strings.EqualFold(filepath.Ext(path), maxmindDatabaseExt):
				return path, nil
			}
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return "", ErrNoFile
}

// NewMaxmindDatabase returns a provider which works with local MaxMind
// databases (GeoIP2 or GeoLite2 City).
//
//   Identifier: maxmind_database
//   Website: https://maxmind.com
//   Parameters: database_path (required), bundled_path, update_url, locales
//
// update_url has to point to tar.gz archive with .mmdb file inside.
// This is a format of MaxMind download service. locales is a
// comma-separated list of languages, the first one is used for names.
func NewMaxmindDatabase(client geolib.HTTPClient, params Parameters) (geolib.Provider, error) {
	if err := params.require(NameMaxmindDatabase, "database_path"); err != nil {
		return nil, err
	}

	return &maxmindDatabaseProvider{
		client:       client,
		fs:           afero.NewOsFs(),
		databasePath: params.Get("database_path", ""),
		bundledPath:  params.Get("bundled_path", ""),
		updateURL:    params.Get("update_url", ""),
		locales:      params.List("locales", maxmindDefaultLocales),
	}, nil
}
