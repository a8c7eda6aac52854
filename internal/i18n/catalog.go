// Package i18n maps message keys to display strings per language. Keys are
// the English text, so English needs no entries of its own.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Supported lists the languages with a catalog, default first.
var Supported = []language.Tag{language.English, language.Spanish}

var spanish = map[string]string{
	// layout
	"To-Do List": "Lista de tareas",
	"Home":       "Inicio",
	"My tasks":   "Mis tareas",
	"New task":   "Nueva tarea",
	"Log in":     "Iniciar sesión",
	"Log out":    "Cerrar sesión",
	"Sign up":    "Registrarse",
	"Language":   "Idioma",
	"Hello, %s":  "Hola, %s",

	// home
	"Organize your day":                         "Organiza tu día",
	"Keep track of your tasks from any device.": "Lleva el control de tus tareas desde cualquier dispositivo.",
	"Get started":                               "Comenzar",

	// list
	"Search":            "Buscar",
	"Search tasks":      "Buscar tareas",
	"From":              "Desde",
	"To":                "Hasta",
	"Clear":             "Limpiar",
	"No tasks found.":   "No se encontraron tareas.",
	"Edit":              "Editar",
	"Delete":            "Eliminar",
	"Mark as completed": "Marcar como completada",
	"Mark as pending":   "Marcar como pendiente",
	"Completed":         "Completada",
	"Pending":           "Pendiente",
	"Created %s":        "Creada el %s",

	// forms
	"Title":       "Título",
	"Description": "Descripción",
	"Save":        "Guardar",
	"Cancel":      "Cancelar",
	"Confirm":     "Confirmar",
	"Create task": "Crear tarea",
	"Edit task":   "Editar tarea",
	"Delete task": "Eliminar tarea",

	"Are you sure you want to delete \"%s\"?": "¿Seguro que deseas eliminar \"%s\"?",

	// auth
	"Username":                 "Nombre de usuario",
	"Password":                 "Contraseña",
	"Password confirmation":    "Confirmación de contraseña",
	"Create account":           "Crear cuenta",
	"Already have an account?": "¿Ya tienes una cuenta?",
	"Don't have an account?":   "¿No tienes una cuenta?",

	// notices
	"The task was created successfully.": "La tarea fue creada exitosamente.",
	"The task was updated successfully.": "La tarea fue actualizada exitosamente.",
	"The task was deleted successfully.": "La tarea fue eliminada exitosamente.",
	"You have been logged out.":          "Has cerrado sesión.",
	"Welcome, %s!":                       "¡Bienvenido, %s!",

	// validation and errors
	"This field is required.":                       "Este campo es obligatorio.",
	"Ensure this value has at most 200 characters.": "Asegúrese de que este valor tenga como máximo 200 caracteres.",
	"Ensure this value has at most 150 characters.": "Asegúrese de que este valor tenga como máximo 150 caracteres.",

	"Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.": "Introduzca un nombre de usuario válido. Este valor solo puede contener letras, números y los caracteres @/./+/-/_.",
	"A user with that username already exists.":                                                       "Ya existe un usuario con ese nombre.",
	"The two password fields didn't match.":                                                           "Los dos campos de contraseña no coinciden.",
	"This password is too short. It must contain at least 8 characters.":                              "Esta contraseña es demasiado corta. Debe contener al menos 8 caracteres.",
	"This password is entirely numeric.":                                                              "Esta contraseña es completamente numérica.",
	"This password is too long. It must contain at most 72 bytes.":                                    "Esta contraseña es demasiado larga. Debe contener como máximo 72 bytes.",
	"Please enter a correct username and password. Note that both fields may be case-sensitive.":      "Por favor, introduzca un nombre de usuario y contraseña correctos. Observe que ambos campos pueden ser sensibles a mayúsculas.",

	"Enter a valid date.":                    "Introduzca una fecha válida.",
	"Page not found":                         "Página no encontrada",
	"The page you requested does not exist.": "La página que solicitaste no existe.",
	"Something went wrong":                   "Algo salió mal",
	"Please try again later.":                "Por favor, inténtalo más tarde.",
}

// NewCatalog builds the message catalog for every supported language.
func NewCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range spanish {
		if err := b.SetString(language.Spanish, key, msg); err != nil {
			return nil, err
		}
	}
	return b, nil
}
