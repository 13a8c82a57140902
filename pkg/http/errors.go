package http

import (
	"errors"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
)

var ErrorUnauthorized = &fluxerr.Error{
	Type: fluxerr.User,
	Help: `The request failed authentication

This most likely means you have a missing or incorrect token. Please
make sure you supply the API token sdmd was started with, either by
setting the environment variable SDM_TOKEN, or using the argument
--token with sdmctl.
`,
	Err: errors.New("request failed authentication"),
}

func MakeAPINotFound(path string) *fluxerr.Error {
	return &fluxerr.Error{
		Type: fluxerr.Missing,
		Help: `The API endpoint requested is not supported by this server.

This indicates that your client (probably sdmctl) is either out of
date, or faulty. Make sure sdmctl and sdmd are the same version.

If you still have problems, please file an issue mentioning what you
were attempting to do, and include this path:

    ` + path + `
`,
		Err: errors.New("API endpoint not found"),
	}
}
