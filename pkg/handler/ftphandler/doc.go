// Package ftphandler implements the FTP reference handler: it connects,
// authenticates, changes into the task's directory, retrieves a raw
// LIST response, and classifies each line as a file or a directory
// across the three listing formats commonly seen on anonymous FTP
// archives (UNIX, MS-DOS, EPLF).
package ftphandler
