// Package pullrequests provides the pull-requests, get-pull-request, open-pull-request and close-pull-request commands.
package pullrequests
