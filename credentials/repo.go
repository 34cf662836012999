package credentials

import "github.com/bandemoon/bandemoon-go/apimodel"

// Repo is the storage substrate beneath the Store. Each entry is written
// and read independently, so a reader may observe partial data from an
// interrupted sequence of writes. Absent entries are reported as zero
// values with a nil error; errors are reserved for I/O faults.
type Repo interface {
	PutAccessToken(token string) error
	GetAccessToken() (string, error)
	PutRefreshToken(token string) error
	GetRefreshToken() (string, error)
	PutUser(user *apimodel.UserInfo) error
	GetUser() (*apimodel.UserInfo, error)
	Clear() error
}
