/*
Package crawlurl provides the immutable URL value used throughout arachne.

A URL identifies a location within a site: a scheme, an optional
principal (username/password), an optional network address (host/port),
and an absolute path. URLs are canonicalized on construction so that two
URLs naming the same location always produce the same canonical string,
and are joined to produce child URLs the same way regardless of whether
the parent's path carries a trailing slash.

# Parsing

Raw URL text may arrive as UTF-8 or as Windows-1252 bytes mislabeled as
UTF-8 (common on older FTP servers). Parse tries UTF-8 first and falls
back to Windows-1252 with replacement characters for anything that still
doesn't decode cleanly. The canonical string form returned by String is
always UTF-8.
*/
package crawlurl
