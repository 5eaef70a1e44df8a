// Package keys carga el material de firma del servicio.
//
// El keystore es un archivo PEM con uno o más pares RSA. Cada bloque puede
// llevar un header "alias" para seleccionarlo por nombre; si el bloque privado
// está cifrado, se descifra con el password configurado. La carga ocurre una
// sola vez al arranque y el Signer resultante es inmutable.
package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoRSAKey     = errors.New("keys: no RSA private key in keystore")
	ErrAliasMissing = errors.New("keys: alias not found in keystore")
)

// LoadRSA lee el par RSA del keystore.
//   - path: archivo PEM
//   - alias: si no es vacío, selecciona el bloque con header "alias" igual;
//     si es vacío, se usa el primer bloque de clave privada.
//   - password: passphrase para bloques cifrados (PEM encriptado legacy).
func LoadRSA(path, alias, password string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read keystore: %w", err)
	}

	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if !isPrivateKeyBlock(block.Type) {
			continue
		}
		if alias != "" && block.Headers["alias"] != alias {
			continue
		}

		der := block.Bytes
		if x509.IsEncryptedPEMBlock(block) {
			der, err = x509.DecryptPEMBlock(block, []byte(password))
			if err != nil {
				return nil, fmt.Errorf("keys: decrypt keystore block: %w", err)
			}
		}

		key, err := parseRSAPrivateKey(der)
		if err != nil {
			return nil, err
		}
		return key, nil
	}

	if alias != "" {
		return nil, ErrAliasMissing
	}
	return nil, ErrNoRSAKey
}

func isPrivateKeyBlock(typ string) bool {
	switch typ {
	case "RSA PRIVATE KEY", "PRIVATE KEY":
		return true
	}
	return false
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("keys: parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNoRSAKey
	}
	return key, nil
}
