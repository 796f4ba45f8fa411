package ftphandler

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
)

// errNotFound signals that the control connection told us a path does
// not exist or is not a directory (e.g. a 550 reply to CWD).
type errNotFound struct {
	path string
}

func (e *errNotFound) Error() string { return fmt.Sprintf("ftphandler: not found: %s", e.path) }

// conn is a bare control connection to an FTP server, speaking just
// enough of RFC 959 to authenticate, change directory, and retrieve a
// directory listing. It exists instead of a third-party client so the
// raw LIST lines reach parse.go unmodified; see DESIGN.md.
type conn struct {
	text *textproto.Conn
	raw  net.Conn
	host string
}

func dial(ctx context.Context, addr string) (*conn, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	c := &conn{text: textproto.NewConn(raw), raw: raw, host: host}
	if _, _, err := c.text.ReadCodeLine(220); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ftphandler: greeting: %w", err)
	}
	return c, nil
}

func (c *conn) close() {
	c.text.Cmd("QUIT")
	c.text.Close()
}

// login authenticates with user/pass, defaulting to the conventional
// anonymous-FTP credentials when the site table leaves them blank.
func (c *conn) login(user, pass string) error {
	if user == "" {
		user = "anonymous"
		pass = "anonymous@"
	}
	id, err := c.text.Cmd("USER %s", user)
	if err != nil {
		return err
	}
	c.text.StartResponse(id)
	code, _, err := c.text.ReadResponse(-1)
	c.text.EndResponse(id)
	if err != nil {
		return fmt.Errorf("ftphandler: USER: %w", err)
	}
	switch code {
	case 230:
		return nil
	case 331:
		id, err = c.text.Cmd("PASS %s", pass)
		if err != nil {
			return err
		}
		c.text.StartResponse(id)
		_, _, err = c.text.ReadResponse(230)
		c.text.EndResponse(id)
		if err != nil {
			return fmt.Errorf("ftphandler: PASS: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("ftphandler: USER: unexpected code %d", code)
	}
}

// changeDir issues CWD and maps a permission-denied reply to
// errNotFound, matching ftplib.error_perm handling in the reference
// Python implementation.
func (c *conn) changeDir(path string) error {
	id, err := c.text.Cmd("CWD %s", path)
	if err != nil {
		return err
	}
	c.text.StartResponse(id)
	code, msg, err := c.text.ReadResponse(-1)
	c.text.EndResponse(id)
	if err != nil {
		return fmt.Errorf("ftphandler: CWD: %w", err)
	}
	if code == 550 {
		return &errNotFound{path: path}
	}
	if code/100 != 2 {
		return fmt.Errorf("ftphandler: CWD %s: %s", path, msg)
	}
	return nil
}

// list opens a passive data connection and returns the raw lines of a
// LIST response for path (empty meaning the current directory).
func (c *conn) list(path string) ([]string, error) {
	data, err := c.openPassive()
	if err != nil {
		return nil, fmt.Errorf("ftphandler: PASV: %w", err)
	}

	cmd := "LIST"
	if path != "" {
		cmd = "LIST " + path
	}
	id, err := c.text.Cmd("%s", cmd)
	if err != nil {
		return nil, err
	}
	c.text.StartResponse(id)
	code, msg, err := c.text.ReadResponse(-1)
	c.text.EndResponse(id)
	if err != nil {
		return nil, fmt.Errorf("ftphandler: LIST: %w", err)
	}
	if code/100 != 1 {
		return nil, fmt.Errorf("ftphandler: LIST: %s", msg)
	}

	lines := readAllLines(data)
	data.Close()

	// The server sends the closing 226/250 reply once the data
	// connection is drained; the final Close above signals EOF to it.
	c.text.ReadResponse(-1)
	return lines, nil
}

// openPassive sends PASV and dials the data connection it advertises.
func (c *conn) openPassive() (net.Conn, error) {
	id, err := c.text.Cmd("PASV")
	if err != nil {
		return nil, err
	}
	c.text.StartResponse(id)
	_, msg, err := c.text.ReadResponse(227)
	c.text.EndResponse(id)
	if err != nil {
		return nil, err
	}
	host, port, err := parsePASV(msg)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	return d.DialContext(context.Background(), "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

// parsePASV extracts the host:port pair from a 227 reply of the form
// "Entering Passive Mode (h1,h2,h3,h4,p1,p2)".
func parsePASV(msg string) (string, int, error) {
	open := strings.IndexByte(msg, '(')
	closeIdx := strings.IndexByte(msg, ')')
	if open == -1 || closeIdx == -1 || closeIdx < open {
		return "", 0, fmt.Errorf("ftphandler: malformed PASV reply %q", msg)
	}
	parts := strings.Split(msg[open+1:closeIdx], ",")
	if len(parts) != 6 {
		return "", 0, fmt.Errorf("ftphandler: malformed PASV reply %q", msg)
	}
	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", 0, fmt.Errorf("ftphandler: malformed PASV reply %q", msg)
		}
		nums[i] = n
	}
	host := fmt.Sprintf("%d.%d.%d.%d", nums[0], nums[1], nums[2], nums[3])
	port := nums[4]*256 + nums[5]
	return host, port, nil
}

// readAllLines drains a data connection line by line until the server
// closes it (the normal way an FTP transfer terminates). It never
// returns an error: an EOF mid-line still yields whatever lines were
// read so far, matching retrlines' best-effort behavior.
func readAllLines(c net.Conn) []string {
	tp := textproto.NewReader(bufio.NewReader(c))
	var lines []string
	for {
		line, err := tp.ReadLine()
		if err != nil {
			break
		}
		lines = append(lines, line)
	}
	return lines
}
