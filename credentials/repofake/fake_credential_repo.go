package credentialrepofake

import (
	"errors"
	"sync"

	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/bandemoon/bandemoon-go/credentials"
)

var _ credentials.Repo = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo is an in-memory credentials.Repo for tests. The fail
// switches simulate substrate I/O faults so the absorbed-error paths of
// the Store can be exercised.
type FakeCredentialRepo struct {
	accessToken  string
	refreshToken string
	user         *apimodel.UserInfo
	lock         sync.RWMutex

	FailWrites bool
	FailReads  bool
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{}
}

func (cr *FakeCredentialRepo) PutAccessToken(token string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	if cr.FailWrites {
		return errors.New("write failed")
	}
	cr.accessToken = token
	return nil
}

func (cr *FakeCredentialRepo) GetAccessToken() (string, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	if cr.FailReads {
		return "", errors.New("read failed")
	}
	return cr.accessToken, nil
}

func (cr *FakeCredentialRepo) PutRefreshToken(token string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	if cr.FailWrites {
		return errors.New("write failed")
	}
	cr.refreshToken = token
	return nil
}

func (cr *FakeCredentialRepo) GetRefreshToken() (string, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	if cr.FailReads {
		return "", errors.New("read failed")
	}
	return cr.refreshToken, nil
}

func (cr *FakeCredentialRepo) PutUser(user *apimodel.UserInfo) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	if cr.FailWrites {
		return errors.New("write failed")
	}
	cr.user = user
	return nil
}

func (cr *FakeCredentialRepo) GetUser() (*apimodel.UserInfo, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	if cr.FailReads {
		return nil, errors.New("read failed")
	}
	return cr.user, nil
}

func (cr *FakeCredentialRepo) Clear() error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	if cr.FailWrites {
		return errors.New("write failed")
	}
	cr.accessToken = ""
	cr.refreshToken = ""
	cr.user = nil
	return nil
}
