package credentials

import (
	"github.com/firdasafridi/gocrypt"
)

// sealedPassword carries a Coiote DM password that is stored encrypted at rest.
type sealedPassword struct {
	Password string `gocrypt:"aes"`
}

// EncryptStruct encrypts the fields tagged with gocrypt using the provided secret key.
func EncryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, err
	}

	gc := gocrypt.New(&gocrypt.Option{AESOpt: aesOpt})
	if err := gc.Encrypt(&entity); err != nil {
		return entity, err
	}
	return entity, nil
}

// DecryptStruct decrypts the fields tagged with gocrypt using the provided secret key.
func DecryptStruct[T any](entity T, secretKey string) (T, error) {
	aesOpt, err := gocrypt.NewAESOpt(secretKey)
	if err != nil {
		return entity, err
	}

	gc := gocrypt.New(&gocrypt.Option{AESOpt: aesOpt})
	if err := gc.Decrypt(&entity); err != nil {
		return entity, err
	}
	return entity, nil
}

// EncryptPassword returns the ciphertext to put in COIOTE_PASSWORD.
func EncryptPassword(password, secretKey string) (string, error) {
	sealed, err := EncryptStruct(sealedPassword{Password: password}, secretKey)
	if err != nil {
		return "", err
	}
	return sealed.Password, nil
}

// DecryptPassword reverses EncryptPassword.
func DecryptPassword(ciphertext, secretKey string) (string, error) {
	opened, err := DecryptStruct(sealedPassword{Password: ciphertext}, secretKey)
	if err != nil {
		return "", err
	}
	return opened.Password, nil
}
