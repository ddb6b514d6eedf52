package rpy

const frenchScript = `# TODO: Translation updated at 2024-03-01 10:00

# game/script.rpy:10
translate french start_636ae3f5:

    # e "You've created a new Ren'Py game."
    e "Vous avez créé un nouveau jeu Ren'Py."

# game/script.rpy:12
translate french start_a1b2c3d4:

    # e "Once you add a story, pictures, and music, you can release it to the world!"
    e "Une fois l'histoire ajoutée, vous pouvez la publier !"

translate french strings:

    # game/screens.rpy:250
    old "Start"
    new "Démarrer"
`
