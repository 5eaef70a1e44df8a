package password

import "sync"

var (
	dummyOnce sync.Once
	dummyPHC  string
)

// DummyVerify ejecuta una verificación argon2id contra un hash precomputado
// y descarta el resultado. Se usa cuando el usuario no existe, para que el
// camino de fallo cueste lo mismo que una comparación real y no se pueda
// distinguir "usuario inexistente" de "password incorrecto" por timing.
func DummyVerify(plain string) {
	dummyOnce.Do(func() {
		// El valor del secreto no importa, solo el costo de verificarlo.
		dummyPHC, _ = Hash(Default, "uaa-dummy-credential")
	})
	_ = Verify(plain, dummyPHC)
}
