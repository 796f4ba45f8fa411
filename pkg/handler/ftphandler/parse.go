package ftphandler

import "strings"

// parsedLine is one classified row of a directory listing. IsDir is nil
// when the listing format names the entry but does not say whether it
// is a file or a directory (UNIX symlinks, and any line this parser
// does not recognize well enough to classify).
type parsedLine struct {
	Name  string
	IsDir *bool
}

var diskYes = true
var diskNo = false

func dirPtr(v bool) *bool {
	if v {
		return &diskYes
	}
	return &diskNo
}

// parseListLine classifies a single raw LIST response line. It returns
// ok=false for lines it cannot interpret at all (blank lines, "total N"
// header lines, and anything matching none of the three known
// formats), which the caller skips rather than treating as an entry.
func parseListLine(line string) (pl parsedLine, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return parsedLine{}, false
	}

	switch {
	case line[0] == '+':
		return parseEPLFLine(line)
	case strings.ContainsRune("-dbclps", rune(line[0])):
		return parseUnixLine(line)
	case line[0] >= '0' && line[0] <= '9':
		return parseMSDOSLine(line)
	default:
		return parsedLine{}, false
	}
}

// parseUnixLine handles the classic "ls -l" style emitted by nearly
// every UNIX FTP daemon:
//
//	drwxr-xr-x   4 ftp  ftp      4096 Jan 10 12:00 pub
//	-rw-r--r--   1 ftp  ftp     19823 Jan 10 12:00 README.txt
//	lrwxrwxrwx   1 ftp  ftp         7 Jan 10 12:00 current -> pub/1.2
func parseUnixLine(line string) (parsedLine, bool) {
	// Permission bits + link count + owner + group + size + 3 date
	// fields + name = 9 fields minimum.
	parts := strings.SplitN(strings.Join(strings.Fields(line), " "), " ", 9)
	if len(parts) < 9 {
		return parsedLine{}, false
	}
	name := parts[8]

	switch line[0] {
	case 'd':
		return parsedLine{Name: name, IsDir: dirPtr(true)}, true
	case '-':
		return parsedLine{Name: name, IsDir: dirPtr(false)}, true
	case 'l':
		if target := strings.Index(name, " -> "); target != -1 {
			name = name[:target]
		}
		return parsedLine{Name: name, IsDir: nil}, true
	default:
		// b (block device), c (char device), p (pipe), s (socket):
		// not a directory, but also not a plain listable file.
		return parsedLine{Name: name, IsDir: nil}, true
	}
}

// parseMSDOSLine handles the IIS/MS-DOS style emitted by Windows FTP
// servers, where the date and time occupy a fixed 17-column prefix:
//
//	10-23-12  01:38PM       <DIR>          pub
//	10-23-12  01:38PM             12348 readme.txt
func parseMSDOSLine(line string) (parsedLine, bool) {
	if len(line) <= 17 {
		return parsedLine{}, false
	}
	rest := strings.TrimSpace(line[17:])
	if rest == "" {
		return parsedLine{}, false
	}
	if strings.HasPrefix(rest, "<DIR>") {
		name := strings.TrimSpace(rest[len("<DIR>"):])
		if name == "" {
			return parsedLine{}, false
		}
		return parsedLine{Name: name, IsDir: dirPtr(true)}, true
	}
	fields := strings.SplitN(rest, " ", 2)
	if len(fields) != 2 {
		return parsedLine{}, false
	}
	name := strings.TrimSpace(fields[1])
	if name == "" {
		return parsedLine{}, false
	}
	return parsedLine{Name: name, IsDir: dirPtr(false)}, true
}

// parseEPLFLine handles the Easily Parsed List Format (RFC draft,
// never widely adopted but still seen on a handful of archives):
//
//	+i8388621.29609,m824255902,r,s1024,\tfile.txt
//	+i8388621.44468,m825718503,/,\tpub
//
// A leading "+" introduces a comma-separated fact list terminated by a
// tab, followed by the entry name. A bare "/" fact means directory; a
// bare "r" fact means a plain file.
func parseEPLFLine(line string) (parsedLine, bool) {
	body := line[1:]
	tab := strings.IndexByte(body, '\t')
	if tab == -1 {
		return parsedLine{}, false
	}
	facts := strings.Split(body[:tab], ",")
	name := body[tab+1:]
	if name == "" {
		return parsedLine{}, false
	}
	var isDir *bool
	for _, f := range facts {
		switch f {
		case "/":
			isDir = dirPtr(true)
		case "r":
			if isDir == nil {
				isDir = dirPtr(false)
			}
		}
	}
	return parsedLine{Name: name, IsDir: isDir}, true
}
