// SPDX-License-Identifier: EPL-2.0

package source

import "errors"

var (
	// ErrEmptyDescriptor is returned for a descriptor with neither data nor URI
	ErrEmptyDescriptor = errors.New("empty source descriptor")

	// ErrUnsupportedScheme is returned for URI schemes other than file, http and https
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")

	// ErrHTTPStatus is returned when a server answers with anything but 200 OK
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)
